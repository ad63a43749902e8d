package user

import "errors"

// User ドメインのエラー定義
var (
	ErrUserNotFound       = errors.New("ユーザーが見つかりません")
	ErrEmailAlreadyExists = errors.New("このメールアドレスは既に登録されています")
	ErrEmailRequired      = errors.New("メールアドレスは必須です")
	ErrFullNameRequired   = errors.New("氏名は必須です")
	ErrPasswordRequired   = errors.New("パスワードは必須です")
	ErrInvalidCredentials = errors.New("メールアドレスまたはパスワードが正しくありません")
)
