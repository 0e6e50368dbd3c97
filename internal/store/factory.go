package store

import "peerlearn.app/server/core/db"

type Stores struct {
	conn db.DBTX
}

func NewStores(conn db.DBTX) *Stores {
	return &Stores{conn: conn}
}

func (s *Stores) Users() UserStore {
	return newUserStore(s.conn)
}

func (s *Stores) Workspaces() WorkspaceStore {
	return newWorkspaceStore(s.conn)
}

func (s *Stores) Memberships() MembershipStore {
	return newMembershipStore(s.conn)
}

func (s *Stores) Documents() DocumentStore {
	return newDocumentStore(s.conn)
}

func (s *Stores) Otps() OtpStore {
	return newOtpStore(s.conn)
}
