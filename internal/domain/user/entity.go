package user

import "time"

// Role はユーザーの権限を表す
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// User はユーザーエンティティを表す
type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// NewUser は一般ユーザーを作成する
func NewUser(email, fullName, passwordHash string) *User {
	return &User{
		Email:        email,
		FullName:     fullName,
		PasswordHash: passwordHash,
		Role:         RoleUser,
		CreatedAt:    time.Now(),
	}
}

// IsAdmin は管理者権限を持つかを返す
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Validate はユーザーの検証を行う
func (u *User) Validate() error {
	if u.Email == "" {
		return ErrEmailRequired
	}
	if u.FullName == "" {
		return ErrFullNameRequired
	}
	if u.PasswordHash == "" {
		return ErrPasswordRequired
	}
	return nil
}
