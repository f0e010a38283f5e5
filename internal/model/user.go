package model

type User struct {
	ID             string `json:"id"`
	Email          string `json:"email"`
	HashedPassword string `json:"-"`
	Ctime          int64  `json:"ctime"`
}
