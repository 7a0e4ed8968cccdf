package entity

// Profile fila de la tabla de perfiles usada para resolver el rol.
type Profile struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}
