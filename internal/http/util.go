package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/agarwalpriyanshu/Dental-CLinic/internal/domain"
	"github.com/agarwalpriyanshu/Dental-CLinic/internal/store"
)

// incident bodies may carry inline attachments
const maxBodyBytes = 16 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readBodyJSON(r *http.Request, maxBytes int64, out any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return errors.New("empty body")
	}
	return json.Unmarshal(body, out)
}

// userView is a User without its password.
type userView struct {
	ID        string      `json:"id"`
	Role      domain.Role `json:"role"`
	Email     string      `json:"email"`
	PatientID string      `json:"patientId,omitempty"`
}

func newUserView(u domain.User) userView {
	return userView{ID: u.ID, Role: u.Role, Email: u.Email, PatientID: u.PatientID}
}

// requireRole writes 401/403 and returns false unless the session user has role.
func requireRole(w http.ResponseWriter, st *store.Store, role domain.Role) (domain.User, bool) {
	u, ok := st.CurrentUser()
	if !ok {
		writeJSON(w, http.StatusUnauthorized, Fail("not logged in"))
		return domain.User{}, false
	}
	if u.Role != role {
		writeJSON(w, http.StatusForbidden, Fail("forbidden"))
		return domain.User{}, false
	}
	return u, true
}
