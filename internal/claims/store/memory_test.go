package store_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"claimguard/internal/claims/store"
)

type InMemoryStoreSuite struct {
	storeContract
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = store.NewInMemory()
}
