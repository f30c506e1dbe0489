package cont

import (
	"context"
	"techlog/entity"
)

type ctxKey string

const UserDataKey ctxKey = "userData"

func PutUser(c context.Context, user *entity.Profile) context.Context {
	return context.WithValue(c, UserDataKey, *user)
}

func GetUser(c context.Context) *entity.Profile {
	user, ok := c.Value(UserDataKey).(entity.Profile)
	if !ok {
		return &entity.Profile{}
	}
	return &user
}
