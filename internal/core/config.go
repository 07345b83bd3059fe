package core

type PromptConfig interface {
	GetPersonality() string
	GetSystemPath() string
	GetIdentityPath() string
}
