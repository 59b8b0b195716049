package main

import (
	iauth "github.com/pirouette/studio/internal/auth"
	"github.com/pirouette/studio/internal/models"
)

func authInput(email string) iauth.NewUserInput {
	return iauth.NewUserInput{
		Email:    email,
		Password: "sissonne-5",
		Roles:    []string{models.RoleStudent},
	}
}

func sessionMeta() iauth.SessionMetadata {
	return iauth.SessionMetadata{IPAddress: "127.0.0.1", UserAgent: "studioctl-test"}
}
