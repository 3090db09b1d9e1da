package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/diagnosis/luxsuv-hotel/pkg/auth"
	"github.com/diagnosis/luxsuv-hotel/pkg/config"
	"github.com/diagnosis/luxsuv-hotel/services/reservations/internal/domain"
)

func newTokenCmd() *cobra.Command {
	var (
		sub  string
		name string
		caps []string
		ttl  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an employee access token signed with JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			if sub == "" {
				return errors.New("--sub is required")
			}
			for _, c := range caps {
				if _, ok := domain.ParseCapability(c); !ok {
					return fmt.Errorf("unknown capability %q", c)
				}
			}
			cfg := config.Load()
			if ttl == 0 {
				ttl = cfg.Auth.AccessTokenTTL
			}
			token, err := auth.NewAccessToken(sub, name, caps, cfg.Auth.JWTSecret, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&sub, "sub", "", "employee id")
	cmd.Flags().StringVar(&name, "name", "", "employee display name")
	cmd.Flags().StringSliceVar(&caps, "caps", nil, "capabilities to grant (rooms:manage, reservations:view_all)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to ACCESS_TOKEN_TTL)")
	return cmd
}
