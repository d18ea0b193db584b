package inmem

import (
	"fmt"

	"github.com/dekarrin/vsopc/server/dao"
)

type store struct {
	users    *InMemoryUsersRepository
	analyses *InMemoryAnalysisRepository
}

func NewDatastore() dao.Store {
	return &store{
		users:    NewUsersRepository(),
		analyses: NewAnalysisRepository(),
	}
}

func (s *store) Users() dao.UserRepository {
	return s.users
}

func (s *store) Analyses() dao.AnalysisRepository {
	return s.analyses
}

func (s *store) Close() error {
	var err error
	var nextErr error

	nextErr = s.users.Close()
	if nextErr != err {
		if err != nil {
			err = fmt.Errorf("%s\nadditionally, %w", err, nextErr)
		} else {
			err = nextErr
		}
	}
	nextErr = s.analyses.Close()
	if nextErr != err {
		if err != nil {
			err = fmt.Errorf("%s\nadditionally, %w", err, nextErr)
		} else {
			err = nextErr
		}
	}

	return err
}
