package model

type Session struct {
	UserID  int64
	AdminID int64
	IsAdmin bool
}
