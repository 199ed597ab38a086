package update

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lucsky/cuid"
	"github.com/ncdeploy/ncdeploy/internal/logger"
	"github.com/ncdeploy/ncdeploy/internal/nextcloud"
	"github.com/ncdeploy/ncdeploy/internal/prompt"
	"github.com/ncdeploy/ncdeploy/pkg/models"
)

// ErrRollbackFailed marks the most severe outcome: the new container is
// bad and the snapshot could not be brought back. Both old and new
// containers may be gone; manual intervention is required.
var ErrRollbackFailed = fmt.Errorf("rollback failed, manual intervention required")

// Result is the outcome of one service's update.
type Result struct {
	Service    string
	Final      State
	OldImageID string
	NewImageID string
	Snapshot   string
	Err        error
}

// Updater walks each service through the update state machine: pull,
// snapshot, replace, health-check, and roll back to the snapshot on
// failure.
type Updater struct {
	cfg       *models.Config
	stack     *models.StackConfig
	runtime   ContainerRuntime
	occ       *nextcloud.Client
	log       *logger.Logger
	confirmer prompt.Confirmer

	Force           bool
	RollbackEnabled bool

	now   func() time.Time
	sleep func(time.Duration)
}

func NewUpdater(
	cfg *models.Config,
	stack *models.StackConfig,
	runtime ContainerRuntime,
	occ *nextcloud.Client,
	log *logger.Logger,
	confirmer prompt.Confirmer,
) *Updater {
	return &Updater{
		cfg:             cfg,
		stack:           stack,
		runtime:         runtime,
		occ:             occ,
		log:             log,
		confirmer:       confirmer,
		RollbackEnabled: true,
		now:             time.Now,
		sleep:           time.Sleep,
	}
}

// UpdateService runs the state machine for one service. Err is set on
// every outcome except UpToDate and Healthy; a Result left in Pending had
// no side effects on the running stack.
func (u *Updater) UpdateService(ctx context.Context, service string) *Result {
	res := &Result{Service: service, Final: StatePending}

	containerID, containerName, imageRef, err := u.runtime.ServiceContainer(ctx, service)
	if err != nil {
		// nothing attempted yet, the service stays Pending
		res.Err = fmt.Errorf("failed to resolve service %s: %w", service, err)
		return res
	}

	runningImageID, err := u.runtime.ContainerImageID(ctx, containerID)
	if err != nil {
		res.Err = err
		return res
	}
	res.OldImageID = runningImageID

	// ImagePulled: no side effects on the running stack yet, a pull
	// failure leaves everything untouched in Pending.
	u.log.Infof("pulling image %s for service %s", imageRef, service)
	if err := u.runtime.Pull(ctx, imageRef); err != nil {
		res.Err = err
		return res
	}
	state := transition(StatePending, StateImagePulled)

	newImageID, err := u.runtime.ImageID(ctx, imageRef)
	if err != nil {
		res.Err = err
		return res
	}
	res.NewImageID = newImageID

	if newImageID == runningImageID && !u.Force {
		u.log.Infof("service %s already runs the latest image", service)
		res.Final = transition(state, StateUpToDate)
		return res
	}

	// Snapshotted: the stopped old container committed and renamed is the
	// rollback point. Failure here aborts the service update with the old
	// container restarted, nothing replaced.
	snapshotTag := fmt.Sprintf("%s_%s_backup_%s", u.cfg.ComposeProject, service, u.now().Format("20060102_150405"))
	if err := u.snapshot(ctx, containerID, snapshotTag); err != nil {
		if startErr := u.runtime.Start(ctx, containerID); startErr != nil {
			u.log.Errorf("could not restart service %s after failed snapshot: %v", service, startErr)
		}
		res.Err = fmt.Errorf("failed to snapshot service %s: %w", service, err)
		res.Final = transition(state, StateFailed)
		return res
	}
	res.Snapshot = snapshotTag
	state = transition(state, StateSnapshotted)

	// Replaced: the new container starts under the compose-managed name.
	if err := u.runtime.ComposeUp(ctx, service); err != nil {
		u.log.Errorf("failed to start replacement for service %s: %v", service, err)
		return u.failOrRollback(ctx, res, state, containerName, snapshotTag,
			fmt.Errorf("failed to replace service %s: %w", service, err))
	}
	state = transition(state, StateReplaced)
	state = transition(state, StateHealthChecking)

	timeout := time.Duration(u.cfg.HealthTimeout) * time.Second
	if err := u.waitHealthy(ctx, service, timeout); err != nil {
		u.log.Errorf("service %s failed its health check: %v", service, err)
		return u.failOrRollback(ctx, res, state, containerName, snapshotTag,
			fmt.Errorf("service %s unhealthy after update: %w", service, err))
	}

	res.Final = transition(state, StateHealthy)
	u.log.Infof("service %s updated and healthy", service)

	u.offerSnapshotCleanup(ctx, service, snapshotTag)
	return res
}

func (u *Updater) snapshot(ctx context.Context, containerID, tag string) error {
	if err := u.runtime.Stop(ctx, containerID); err != nil {
		return err
	}
	if _, err := u.runtime.Commit(ctx, containerID, tag); err != nil {
		return err
	}
	return u.runtime.Rename(ctx, containerID, tag)
}

// failOrRollback routes a post-snapshot failure: to the rollback path when
// enabled, otherwise to Failed with the inconsistent state surfaced.
func (u *Updater) failOrRollback(ctx context.Context, res *Result, state State, containerName, snapshotTag string, cause error) *Result {
	if !u.RollbackEnabled {
		u.log.Errorf("rollback disabled: stack may be left with the old container parked as %s", snapshotTag)
		res.Err = cause
		res.Final = transition(state, StateFailed)
		return res
	}

	state = transition(state, StateRollingBack)
	u.log.Warnf("rolling back service %s to snapshot %s", res.Service, snapshotTag)

	if err := u.rollback(ctx, res.Service, containerName, snapshotTag); err != nil {
		res.Err = fmt.Errorf("%w: update failed (%v), then: %v", ErrRollbackFailed, cause, err)
		res.Final = transition(state, StateRollbackFailed)
		return res
	}

	u.log.Infof("service %s rolled back to its pre-update state", res.Service)
	res.Err = cause
	res.Final = transition(state, StateRolledBack)
	return res
}

func (u *Updater) rollback(ctx context.Context, service, containerName, snapshotTag string) error {
	// the failed replacement may or may not have produced a container
	if newID, _, _, err := u.runtime.ServiceContainer(ctx, service); err == nil {
		if err := u.runtime.Stop(ctx, newID); err != nil {
			u.log.Warnf("could not stop failed container for %s: %v", service, err)
		}
		if err := u.runtime.Remove(ctx, newID); err != nil {
			return fmt.Errorf("failed to remove the broken replacement: %w", err)
		}
	}

	if err := u.runtime.Rename(ctx, snapshotTag, containerName); err != nil {
		return fmt.Errorf("failed to rename snapshot back: %w", err)
	}
	// the snapshot name no longer exists after the rename
	if err := u.runtime.Start(ctx, containerName); err != nil {
		return fmt.Errorf("failed to start restored container: %w", err)
	}

	timeout := time.Duration(u.cfg.RollbackHealthTimeout) * time.Second
	if err := u.waitHealthyContainer(ctx, containerName, timeout); err != nil {
		return fmt.Errorf("restored container is not healthy: %w", err)
	}

	return nil
}

// waitHealthy polls the service's current container at the configured
// interval until healthy or the timeout elapses. Timeout and terminal
// non-running status both map to the same failure path.
func (u *Updater) waitHealthy(ctx context.Context, service string, timeout time.Duration) error {
	id, _, _, err := u.runtime.ServiceContainer(ctx, service)
	if err != nil {
		return err
	}
	return u.waitHealthyContainer(ctx, id, timeout)
}

func (u *Updater) waitHealthyContainer(ctx context.Context, containerID string, timeout time.Duration) error {
	interval := time.Duration(u.cfg.HealthInterval) * time.Second
	deadline := u.now().Add(timeout)

	for {
		status, err := u.runtime.Status(ctx, containerID)
		if err != nil {
			return err
		}

		switch status {
		case "running":
			health, err := u.runtime.Health(ctx, containerID)
			if err != nil {
				return err
			}
			if health == "healthy" || health == "none" {
				return nil
			}
		case "missing":
			return fmt.Errorf("container disappeared during health check")
		}

		if !u.now().Before(deadline) {
			return fmt.Errorf("not healthy after %s", timeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		u.sleep(interval)
	}
}

func (u *Updater) offerSnapshotCleanup(ctx context.Context, service, snapshotTag string) {
	if !u.confirmer.Confirm(fmt.Sprintf("delete the pre-update snapshot of %s (%s)", service, snapshotTag), false) {
		u.log.Infof("keeping snapshot %s", snapshotTag)
		return
	}

	if err := u.runtime.Remove(ctx, snapshotTag); err != nil {
		u.log.Warnf("could not remove snapshot container %s: %v", snapshotTag, err)
	}
	if err := u.runtime.RemoveImage(ctx, snapshotTag); err != nil {
		u.log.Warnf("could not remove snapshot image %s: %v", snapshotTag, err)
	}
}

// UpdateAll updates every service in the stack's dependency order,
// aborting on the first failure: later services may depend on earlier
// ones carrying the new schema or config. On full success the in-container
// upgrade and repair commands run inside a maintenance-mode window.
func (u *Updater) UpdateAll(ctx context.Context) (models.UpdateRun, error) {
	run := models.UpdateRun{
		ID:        cuid.New(),
		StartedAt: u.now(),
	}

	for _, service := range u.stack.UpdateOrder() {
		u.log.Infof("updating service %s", service)
		res := u.UpdateService(ctx, service)

		record := models.ServiceUpdate{
			Service:    service,
			OldImageID: res.OldImageID,
			NewImageID: res.NewImageID,
			Snapshot:   res.Snapshot,
			Outcome:    res.Final.String(),
		}
		if res.Err != nil {
			record.Error = res.Err.Error()
		}
		run.Services = append(run.Services, record)

		if res.Err != nil {
			run.FinishedAt = u.now()
			return run, fmt.Errorf("update aborted at service %s: %w", service, res.Err)
		}
	}

	if err := u.postUpdate(ctx); err != nil {
		run.FinishedAt = u.now()
		return run, err
	}

	run.FinishedAt = u.now()
	return run, nil
}

// postUpdate runs schema migration, index maintenance and repair inside a
// maintenance-mode window after every service carries the new images.
func (u *Updater) postUpdate(ctx context.Context) error {
	if u.occ == nil {
		return nil
	}

	u.log.Infof("running in-container upgrade and repair")
	if err := u.occ.MaintenanceMode(ctx, true); err != nil {
		u.log.Warnf("could not enable maintenance mode: %v", err)
	}
	defer func() {
		if err := u.occ.MaintenanceMode(ctx, false); err != nil {
			u.log.Warnf("could not disable maintenance mode: %v", err)
		}
	}()

	var errs []string
	if err := u.occ.Upgrade(ctx); err != nil {
		errs = append(errs, err.Error())
	}
	if err := u.occ.AddMissingIndices(ctx); err != nil {
		errs = append(errs, err.Error())
	}
	if err := u.occ.Repair(ctx, true); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("post-update commands failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
