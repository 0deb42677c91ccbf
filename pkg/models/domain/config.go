package domain

import "fmt"

// ProfileType describes how an AWS shared-config profile obtains credentials.
type ProfileType string

const (
	ProfileTypeStatic     ProfileType = "static"
	ProfileTypeSSO        ProfileType = "sso"
	ProfileTypeAssumeRole ProfileType = "assume_role"
)

type ConfigProfile struct {
	Name   string
	Type   ProfileType
	Region string
}

func (c ConfigProfile) String() string {
	return fmt.Sprintf("%s:%s", c.Type, c.Name)
}
