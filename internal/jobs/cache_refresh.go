package jobs

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/emrgen/legaldoc/internal/model"
	"github.com/emrgen/legaldoc/internal/service"
)

// CacheRefreshTask re-primes the per-type current document cache so reads
// stay warm after the cached entry expires.
type CacheRefreshTask struct {
	query *service.QueryService
	cron  string
}

func NewCacheRefreshTask(interval string, query *service.QueryService) *CacheRefreshTask {
	return &CacheRefreshTask{
		query: query,
		cron:  interval,
	}
}

func (c *CacheRefreshTask) Schedule() string {
	return c.cron
}

func (c *CacheRefreshTask) Run() {
	ctx := context.Background()
	for _, typ := range model.DocumentTypes() {
		if _, err := c.query.GetCurrent(ctx, typ); err != nil {
			logrus.Errorf("cache refresh for %s failed: %v", typ, err)
		}
	}
}
