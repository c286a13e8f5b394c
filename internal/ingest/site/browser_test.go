package site

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/chromedp/cdproto/network"
	"github.com/stretchr/testify/assert"
)

func TestRecordStatus(t *testing.T) {
	const pageURL = "https://regiowyniki.pl/malopolska/klub/hutnik-krakow/"

	var status atomic.Int64
	recordStatus(&status, pageURL, &network.Response{URL: pageURL + "static/app.js", Status: 404})
	assert.Zero(t, status.Load())

	recordStatus(&status, pageURL, nil)
	assert.Zero(t, status.Load())

	recordStatus(&status, pageURL, &network.Response{URL: pageURL, Status: 503})
	assert.Equal(t, int64(503), status.Load())
}

func TestRecordStatus_ConcurrentEvents(t *testing.T) {
	const pageURL = "https://regiowyniki.pl/slask/klub/ruch/"

	var (
		status atomic.Int64
		wg     sync.WaitGroup
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			recordStatus(&status, pageURL, &network.Response{URL: pageURL, Status: 200})
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(200), status.Load())
}
