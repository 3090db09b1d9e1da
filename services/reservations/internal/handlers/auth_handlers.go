package handlers

import (
	"net/http"

	"github.com/diagnosis/luxsuv-hotel/internal/http/response"
	"github.com/diagnosis/luxsuv-hotel/internal/utils"
)

// Login handles employee login and returns a bearer token.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		response.BadRequest(w, "Invalid JSON")
		return
	}

	res, err := h.auth.Login(r.Context(), utils.NormalizeKey(req.Username), req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, res)
}
