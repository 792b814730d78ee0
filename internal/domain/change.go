package domain

// Collection names double as durable storage keys.
const (
	CollectionUsers     = "users"
	CollectionPatients  = "patients"
	CollectionIncidents = "incidents"
	SessionKey          = "user"

	// CollectionAll marks a change that touched every collection; not a storage key.
	CollectionAll = "*"
)

type ChangeOp string

const (
	OpAdd    ChangeOp = "add"
	OpUpdate ChangeOp = "update"
	OpDelete ChangeOp = "delete"
	OpLogin  ChangeOp = "login"
	OpLogout ChangeOp = "logout"
	OpReset  ChangeOp = "reset"
)

// Change is emitted after a mutation has been persisted.
type Change struct {
	Collection string   `json:"collection"`
	Op         ChangeOp `json:"op"`
	ID         string   `json:"id,omitempty"`
}
