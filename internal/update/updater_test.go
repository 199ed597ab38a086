package update

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ncdeploy/ncdeploy/internal/logger"
	"github.com/ncdeploy/ncdeploy/internal/prompt"
	"github.com/ncdeploy/ncdeploy/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRuntime is an in-memory ContainerRuntime. The resolved container
// switches from the old to the replacement once ComposeUp ran, mirroring
// the compose-managed name reuse the real driver sees.
type fakeRuntime struct {
	oldID, newID  string
	containerName string
	imageRef      string

	runningImageID string
	pulledImageID  string

	pullErr      error
	commitErr    error
	composeUpErr error

	// health per container ID/name, "healthy" when absent
	health map[string]string

	replaced bool

	pulls         int
	stops         []string
	starts        []string
	removes       []string
	commits       []string
	renames       [][2]string
	removedImages []string
	composeUps    int
}

func newFakeRuntime() *fakeRuntime {
	return &fakeRuntime{
		oldID:          "c-old",
		newID:          "c-new",
		containerName:  "nextcloud-app",
		imageRef:       "nextcloud:31-fpm",
		runningImageID: "sha256:old",
		pulledImageID:  "sha256:new",
		health:         map[string]string{},
	}
}

func (f *fakeRuntime) Pull(ctx context.Context, imageRef string) error {
	f.pulls++
	return f.pullErr
}

func (f *fakeRuntime) ImageID(ctx context.Context, ref string) (string, error) {
	return f.pulledImageID, nil
}

func (f *fakeRuntime) ServiceContainer(ctx context.Context, service string) (string, string, string, error) {
	if f.replaced {
		return f.newID, f.containerName, f.imageRef, nil
	}
	return f.oldID, f.containerName, f.imageRef, nil
}

func (f *fakeRuntime) ContainerImageID(ctx context.Context, containerID string) (string, error) {
	return f.runningImageID, nil
}

func (f *fakeRuntime) Status(ctx context.Context, containerID string) (string, error) {
	return "running", nil
}

func (f *fakeRuntime) Health(ctx context.Context, containerID string) (string, error) {
	if h, ok := f.health[containerID]; ok {
		return h, nil
	}
	return "healthy", nil
}

func (f *fakeRuntime) Start(ctx context.Context, containerID string) error {
	f.starts = append(f.starts, containerID)
	return nil
}

func (f *fakeRuntime) Stop(ctx context.Context, containerID string) error {
	f.stops = append(f.stops, containerID)
	return nil
}

func (f *fakeRuntime) Remove(ctx context.Context, containerID string) error {
	f.removes = append(f.removes, containerID)
	if containerID == f.newID {
		f.replaced = false
	}
	return nil
}

func (f *fakeRuntime) Commit(ctx context.Context, containerID, tag string) (string, error) {
	if f.commitErr != nil {
		return "", f.commitErr
	}
	f.commits = append(f.commits, tag)
	return "sha256:snapshot", nil
}

func (f *fakeRuntime) Rename(ctx context.Context, containerID, newName string) error {
	f.renames = append(f.renames, [2]string{containerID, newName})
	return nil
}

func (f *fakeRuntime) RemoveImage(ctx context.Context, ref string) error {
	f.removedImages = append(f.removedImages, ref)
	return nil
}

func (f *fakeRuntime) ComposeUp(ctx context.Context, service string) error {
	f.composeUps++
	if f.composeUpErr != nil {
		return f.composeUpErr
	}
	f.replaced = true
	return nil
}

func testUpdater(runtime ContainerRuntime) *Updater {
	cfg := &models.Config{
		ComposeProject:        "nextcloud",
		HealthTimeout:         0,
		HealthInterval:        0,
		RollbackHealthTimeout: 0,
	}
	stack := &models.StackConfig{
		Services: []models.ServiceConfig{
			{Name: "db", UpdateOrder: 10},
			{Name: "app", UpdateOrder: 20},
		},
	}
	u := NewUpdater(cfg, stack, runtime, nil, logger.Nop(), prompt.NonInteractive{})
	u.sleep = func(time.Duration) {}
	return u
}

func TestUpdateServiceUpToDateShortCircuits(t *testing.T) {
	fake := newFakeRuntime()
	fake.pulledImageID = fake.runningImageID
	u := testUpdater(fake)

	res := u.UpdateService(context.Background(), "app")

	require.NoError(t, res.Err)
	assert.Equal(t, StateUpToDate, res.Final)
	assert.Empty(t, fake.commits, "no snapshot for an up-to-date service")
	assert.Empty(t, fake.stops)
	assert.Zero(t, fake.composeUps)
}

func TestUpdateServiceForceReplacesSameImage(t *testing.T) {
	fake := newFakeRuntime()
	fake.pulledImageID = fake.runningImageID
	u := testUpdater(fake)
	u.Force = true

	res := u.UpdateService(context.Background(), "app")

	require.NoError(t, res.Err)
	assert.Equal(t, StateHealthy, res.Final)
	assert.Len(t, fake.commits, 1)
}

func TestUpdateServicePullFailureHasNoSideEffects(t *testing.T) {
	fake := newFakeRuntime()
	fake.pullErr = errors.New("registry unreachable")
	u := testUpdater(fake)

	res := u.UpdateService(context.Background(), "app")

	require.Error(t, res.Err)
	assert.Equal(t, StatePending, res.Final)
	assert.Empty(t, fake.stops)
	assert.Empty(t, fake.commits)
	assert.Zero(t, fake.composeUps)
}

func TestUpdateServiceHealthySuccess(t *testing.T) {
	fake := newFakeRuntime()
	u := testUpdater(fake)

	res := u.UpdateService(context.Background(), "app")

	require.NoError(t, res.Err)
	assert.Equal(t, StateHealthy, res.Final)
	assert.Equal(t, "sha256:old", res.OldImageID)
	assert.Equal(t, "sha256:new", res.NewImageID)
	assert.NotEmpty(t, res.Snapshot)
	// the non-interactive confirmer declines, so the snapshot survives
	assert.Empty(t, fake.removedImages)
}

func TestUpdateServiceSnapshotFailureRestartsOldContainer(t *testing.T) {
	fake := newFakeRuntime()
	fake.commitErr = errors.New("disk full")
	u := testUpdater(fake)

	res := u.UpdateService(context.Background(), "app")

	require.Error(t, res.Err)
	assert.Equal(t, StateFailed, res.Final)
	assert.Contains(t, fake.starts, fake.oldID)
	assert.Zero(t, fake.composeUps)
}

func TestUpdateServiceUnhealthyRollsBackOnce(t *testing.T) {
	fake := newFakeRuntime()
	fake.health[fake.newID] = "unhealthy"
	u := testUpdater(fake)

	res := u.UpdateService(context.Background(), "app")

	require.Error(t, res.Err)
	assert.Equal(t, StateRolledBack, res.Final)

	// the broken replacement is removed and the snapshot renamed back
	assert.Contains(t, fake.removes, fake.newID)

	var renamedBack int
	for _, r := range fake.renames {
		if r[0] == res.Snapshot && r[1] == fake.containerName {
			renamedBack++
		}
	}
	assert.Equal(t, 1, renamedBack, "exactly one rollback rename")
	// the snapshot name is gone after the rename, so the restored
	// container is started under its service name
	assert.Contains(t, fake.starts, fake.containerName)
	assert.NotContains(t, fake.starts, res.Snapshot)
	assert.NotErrorIs(t, res.Err, ErrRollbackFailed)
}

func TestUpdateServiceRollbackDisabledEndsFailed(t *testing.T) {
	fake := newFakeRuntime()
	fake.health[fake.newID] = "unhealthy"
	u := testUpdater(fake)
	u.RollbackEnabled = false

	res := u.UpdateService(context.Background(), "app")

	require.Error(t, res.Err)
	assert.Equal(t, StateFailed, res.Final)
	assert.Empty(t, fake.removes, "no rollback dismantling when disabled")
}

func TestUpdateAllAbortsOnFirstFailure(t *testing.T) {
	fake := newFakeRuntime()
	fake.pullErr = errors.New("registry unreachable")
	u := testUpdater(fake)

	run, err := u.UpdateAll(context.Background())

	require.Error(t, err)
	require.Len(t, run.Services, 1, "aborts before touching later services")
	assert.Equal(t, "db", run.Services[0].Service)
	assert.NotEmpty(t, run.Services[0].Error)
	assert.NotEmpty(t, run.ID)
	assert.False(t, run.FinishedAt.IsZero())
}

func TestUpdateAllSuccess(t *testing.T) {
	fake := newFakeRuntime()
	u := testUpdater(fake)

	run, err := u.UpdateAll(context.Background())

	require.NoError(t, err)
	require.Len(t, run.Services, 2)
	assert.Equal(t, []string{"db", "app"}, []string{run.Services[0].Service, run.Services[1].Service})
	for _, s := range run.Services {
		assert.Equal(t, "healthy", s.Outcome)
		assert.Empty(t, s.Error)
	}
}
