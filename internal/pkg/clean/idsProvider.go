package clean

import (
	"time"

	"github.com/commute-learn/podgo/internal/pkg/metadata"
	"github.com/pkg/errors"
)

// MetadataLister returns all stored podcast records
type MetadataLister interface {
	List() ([]metadata.PodcastMetadata, error)
}

type expiredIDsProvider struct {
	lister MetadataLister
	expire time.Duration
	nowF   func() time.Time
}

// NewExpiredIDsProvider creates a provider of podcast IDs older than expire
func NewExpiredIDsProvider(lister MetadataLister, expire time.Duration) (OldIDsProvider, error) {
	if lister == nil {
		return nil, errors.New("no metadata lister provided")
	}
	if expire <= 0 {
		return nil, errors.New("wrong expire duration")
	}
	return &expiredIDsProvider{lister: lister, expire: expire, nowF: time.Now}, nil
}

func (p *expiredIDsProvider) Get() ([]string, error) {
	all, err := p.lister.List()
	if err != nil {
		return nil, errors.Wrap(err, "can't list podcasts")
	}
	limit := p.nowF().Add(-p.expire)
	res := make([]string, 0)
	for _, m := range all {
		if m.CreatedAt.Before(limit) {
			res = append(res, m.ID)
		}
	}
	return res, nil
}
