package domain

// Role 账号角色
type Role string

const (
	RoleAdmin   Role = "Admin"
	RolePatient Role = "Patient"
)

// User 登录账号（对应 durable key "users" 中的一条记录）
// Password 以明文保存，登录时直接比较
type User struct {
	ID        string `json:"id"`
	Role      Role   `json:"role"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	PatientID string `json:"patientId,omitempty"` // 仅 Patient 角色：关联的 Patient.ID
}

func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
