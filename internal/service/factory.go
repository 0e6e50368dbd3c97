package service

import (
	"peerlearn.app/server/internal/storage"
	"peerlearn.app/server/internal/store"
	"peerlearn.app/server/internal/token"
)

type Services struct {
	stores       *store.Stores
	txRunner     TxRunner
	tokens       token.Manager
	avatars      storage.Storage
	otpPublisher OtpPublisher
}

func NewServices(stores *store.Stores, txRunner TxRunner, tokens token.Manager, avatars storage.Storage, otpPublisher OtpPublisher) *Services {
	return &Services{
		stores:       stores,
		txRunner:     txRunner,
		tokens:       tokens,
		avatars:      avatars,
		otpPublisher: otpPublisher,
	}
}

func (s *Services) Users() UserService {
	return NewUserService(s.stores.Users(), s.txRunner, s.avatars)
}

func (s *Services) Auth() AuthService {
	return NewAuthService(s.stores.Users(), s.tokens)
}

func (s *Services) Otps() OtpService {
	return NewOtpService(s.stores.Users(), s.txRunner, s.otpPublisher)
}

func (s *Services) Workspaces() WorkspaceService {
	return NewWorkspaceService(s.stores.Workspaces(), s.txRunner)
}

func (s *Services) Documents() DocumentService {
	return NewDocumentService(s.stores.Documents(), s.stores.Workspaces(), s.txRunner)
}
