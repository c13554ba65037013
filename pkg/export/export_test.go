package export

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapex/pkg/progress"
	"snapex/pkg/translate/tcsv"
)

type fakeClient struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string][]error
	calls     []string
}

func (f *fakeClient) Get(_ context.Context, path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, path)
	if queued := f.errs[path]; len(queued) > 0 {
		err := queued[0]
		f.errs[path] = queued[1:]
		return nil, err
	}
	if body, ok := f.responses[path]; ok {
		return []byte(body), nil
	}
	return nil, fmt.Errorf("unexpected path %s", path)
}

func (f *fakeClient) called(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c == path {
			return true
		}
	}
	return false
}

const (
	assetsPath   = "/snapshots-appengine/snapshot/snap1/get_assets?type=own&companyId=comp1"
	metadataPath = "/snapshots/snapshotDetails/snap1?companyId=comp1"
)

func collect(r *progress.Reporter) (func() []progress.Event, func()) {
	var (
		mu     sync.Mutex
		events []progress.Event
		done   = make(chan struct{})
	)
	go func() {
		defer close(done)
		for ev := range r.Events() {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
		}
	}()
	snapshot := func() []progress.Event {
		mu.Lock()
		defer mu.Unlock()
		return append([]progress.Event{}, events...)
	}
	wait := func() {
		r.Close()
		<-done
	}
	return snapshot, wait
}

func fixedExporter(client Client, reporter *progress.Reporter) *Exporter {
	e := New(client, nil, reporter, nil)
	e.now = func() time.Time {
		return time.Date(2025, 3, 4, 10, 20, 30, 0, time.UTC)
	}
	return e
}

func TestRunRequiresIDs(t *testing.T) {
	reporter := progress.NewReporter()
	events, wait := collect(reporter)
	e := fixedExporter(&fakeClient{}, reporter)

	_, err := e.Run(context.Background(), Options{SnapshotID: "snap1"})
	require.Error(t, err)
	wait()

	got := events()
	require.NotEmpty(t, got)
	assert.Equal(t, 0, got[len(got)-1].Progress)
	assert.Contains(t, got[len(got)-1].Message, "Error: ")
}

func TestRunRejectsUnknownFormat(t *testing.T) {
	e := fixedExporter(&fakeClient{}, nil)
	_, err := e.Run(context.Background(), Options{SnapshotID: "snap1", CompanyID: "comp1", Format: "pdf"})
	assert.ErrorContains(t, err, "unsupported export format")
}

func TestRunXLSX(t *testing.T) {
	client := &fakeClient{responses: map[string]string{
		assetsPath:           `{"tags":[{"_id":"t1","name":"vip"}]}`,
		metadataPath:         `{"locationId":"loc1","name":"Agency Base","type":"own"}`,
		"/locations/loc1/tags": `{"tags":[{"_id":"t1","name":"vip","contactCount":12}]}`,
	}}
	reporter := progress.NewReporter()
	events, wait := collect(reporter)
	e := fixedExporter(client, reporter)

	files, err := e.Run(context.Background(), Options{SnapshotID: "snap1", CompanyID: "comp1"})
	require.NoError(t, err)
	wait()

	require.Len(t, files, 1)
	assert.Equal(t, "Snapshot_snap1_Export_2025-03-04T10-20-30.xlsx", files[0].Name)
	assert.NotEmpty(t, files[0].Data)
	assert.True(t, client.called("/locations/loc1/tags"))

	got := events()
	require.NotEmpty(t, got)
	assert.Equal(t, progress.Event{Progress: 5, Message: "Fetching snapshot data..."}, got[0])
	assert.Equal(t, 100, got[len(got)-1].Progress)

	var pcts []int
	for _, ev := range got {
		pcts = append(pcts, ev.Progress)
	}
	assert.Contains(t, pcts, 30)
	assert.Contains(t, pcts, 50)
	assert.Contains(t, pcts, 79)
	assert.Contains(t, pcts, 80)
}

func TestRunXLSXWithoutMetadataSkipsEnrichment(t *testing.T) {
	client := &fakeClient{
		responses: map[string]string{
			assetsPath: `{"forms":[{"_id":"f1","name":"Contact Us"}]}`,
		},
		errs: map[string][]error{
			metadataPath: {errors.New("404")},
		},
	}
	e := fixedExporter(client, nil)

	files, err := e.Run(context.Background(), Options{SnapshotID: "snap1", CompanyID: "comp1"})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.False(t, client.called("/forms/loc1/f1"))
}

func TestRunRetriesPayloadFetch(t *testing.T) {
	orig := snapshotFetchPolicy
	snapshotFetchPolicy.Delay = 0
	t.Cleanup(func() { snapshotFetchPolicy = orig })

	client := &fakeClient{
		responses: map[string]string{
			assetsPath:   `{}`,
			metadataPath: `{"locationId":"loc1"}`,
		},
		errs: map[string][]error{
			assetsPath: {
				errors.New("request failed with status 401 Unauthorized"),
				errors.New("request failed with status 401 Unauthorized"),
			},
		},
	}
	reporter := progress.NewReporter()
	events, wait := collect(reporter)
	e := fixedExporter(client, reporter)

	_, err := e.Run(context.Background(), Options{SnapshotID: "snap1", CompanyID: "comp1"})
	require.NoError(t, err)
	wait()

	retries := 0
	for _, ev := range events() {
		if strings.HasPrefix(ev.Message, "Retrying...") {
			retries++
		}
	}
	assert.Equal(t, 2, retries)
}

func TestRunCSV(t *testing.T) {
	client := &fakeClient{responses: map[string]string{
		assetsPath:   `{"tags":[{"_id":"t1","name":"vip"}],"forms":[{"_id":"f1","name":"Contact Us"}]}`,
		metadataPath: `{"locationId":"loc1"}`,
	}}
	e := fixedExporter(client, nil)

	files, err := e.Run(context.Background(), Options{SnapshotID: "snap1", CompanyID: "comp1", Format: FormatCSV})
	require.NoError(t, err)

	require.Len(t, files, 3)
	assert.Equal(t, "Snapshot_snap1_SUMMARY_2025-03-04T10-20-30.csv", files[0].Name)
	assert.Equal(t, "Snapshot_snap1_Tags_2025-03-04T10-20-30.csv", files[1].Name)
	assert.Equal(t, "Snapshot_snap1_Forms_2025-03-04T10-20-30.csv", files[2].Name)

	for _, f := range files {
		assert.True(t, strings.HasPrefix(string(f.Data), tcsv.BOM), f.Name)
	}
	assert.Contains(t, string(files[0].Data), "Tags,1,Yes")
	assert.Contains(t, string(files[0].Data), "Workflows,0,No")

	// CSV export never enriches.
	assert.False(t, client.called("/locations/loc1/tags"))
	assert.False(t, client.called("/forms/loc1/f1"))
}

func TestSnapshots(t *testing.T) {
	client := &fakeClient{responses: map[string]string{
		"/snapshots/v2/comp1?companyId=comp1&skip=0&limit=20&type=own": `{"snapshots":[{"_id":"snap1","name":"Base"},{"_id":"snap2","name":"Pro"}]}`,
	}}
	e := fixedExporter(client, nil)

	list, err := e.Snapshots(context.Background(), "comp1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Base", list[0].Name)
}

func TestCompanyIDFromUser(t *testing.T) {
	client := &fakeClient{responses: map[string]string{
		"/users/u1": `{"companyId":"comp1"}`,
		"/users/u2": `{}`,
	}}
	e := fixedExporter(client, nil)

	id, err := e.CompanyIDFromUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "comp1", id)

	_, err = e.CompanyIDFromUser(context.Background(), "u2")
	assert.ErrorContains(t, err, "no company id")
}
