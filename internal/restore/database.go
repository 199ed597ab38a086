package restore

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
)

// RestoreDatabase replaces the live database with a dump artifact. Every
// failure before the destructive drop aborts without touching the
// database; once the drop has run, stopped services are restarted on the
// way out of every path.
func (m *Manager) RestoreDatabase(ctx context.Context, timestamp string) error {
	path, err := m.selectArtifact("database", timestamp)
	if err != nil {
		return err
	}

	plain, cleanup, err := m.stageDecrypted(ctx, path)
	if err != nil {
		return err
	}
	defer cleanup()

	if !m.confirmer.Confirm(fmt.Sprintf("drop database %q and restore it from %s", m.cfg.DBName, path), false) {
		return fmt.Errorf("database restore cancelled")
	}

	if err := m.occ.MaintenanceMode(ctx, true); err != nil {
		m.log.Warnf("could not enable maintenance mode: %v", err)
	}
	defer func() {
		if err := m.occ.MaintenanceMode(ctx, false); err != nil {
			m.log.Warnf("could not disable maintenance mode: %v", err)
		}
	}()

	stopped := m.stack.DBConnectedServices()
	m.log.Infof("stopping services holding database connections: %v", stopped)
	if err := m.compose.Stop(ctx, stopped...); err != nil {
		return fmt.Errorf("failed to stop dependent services: %w", err)
	}

	restoreErr := m.dropAndRestore(ctx, plain)

	if err := m.restartServices(ctx, stopped); err != nil {
		if restoreErr != nil {
			return errors.Join(restoreErr, err)
		}
		return err
	}

	if restoreErr != nil {
		return restoreErr
	}

	m.log.Infof("running post-restore repair commands")
	if err := m.occ.AddMissingIndices(ctx); err != nil {
		return err
	}
	if err := m.occ.Repair(ctx, false); err != nil {
		return err
	}

	return nil
}

func (m *Manager) dropAndRestore(ctx context.Context, dumpPath string) error {
	f, err := os.Open(dumpPath)
	if err != nil {
		return fmt.Errorf("failed to open dump: %w", err)
	}
	defer f.Close()

	gzr, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("dump is not a valid gzip stream: %w", err)
	}
	defer gzr.Close()

	if m.cfg.ExternalDB() {
		return m.restoreExternal(ctx, gzr)
	}
	return m.restoreContainer(ctx, gzr)
}

func (m *Manager) restoreContainer(ctx context.Context, dump *gzip.Reader) error {
	admin := []string{"psql", "-U", m.cfg.DBUser, "-d", "postgres", "-c"}

	drop := append(admin[:len(admin):len(admin)], fmt.Sprintf("DROP DATABASE IF EXISTS %q;", m.cfg.DBName))
	if result, err := m.docker.Exec(ctx, m.cfg.DBContainer, drop, "", nil); err != nil {
		return fmt.Errorf("failed to drop database: %w", err)
	} else if result.ExitCode != 0 {
		return fmt.Errorf("failed to drop database: %s", result.Stderr)
	}

	create := append(admin[:len(admin):len(admin)], fmt.Sprintf("CREATE DATABASE %q OWNER %q;", m.cfg.DBName, m.cfg.DBUser))
	if result, err := m.docker.Exec(ctx, m.cfg.DBContainer, create, "", nil); err != nil {
		return fmt.Errorf("failed to recreate database: %w", err)
	} else if result.ExitCode != 0 {
		return fmt.Errorf("failed to recreate database: %s", result.Stderr)
	}

	restore := []string{"psql", "-U", m.cfg.DBUser, "-d", m.cfg.DBName, "--set", "ON_ERROR_STOP=on"}
	if err := m.docker.ExecStreamIn(ctx, m.cfg.DBContainer, restore, nil, dump); err != nil {
		return fmt.Errorf("failed to stream dump into database: %w", err)
	}

	return nil
}

func (m *Manager) restoreExternal(ctx context.Context, dump *gzip.Reader) error {
	password, err := m.store.Read("postgres_password")
	if err != nil {
		return fmt.Errorf("failed to resolve database credentials: %w", err)
	}

	env := append(os.Environ(), "PGPASSWORD="+password)
	base := []string{
		"-h", m.cfg.DBHost,
		"-p", strconv.Itoa(m.cfg.DBPort),
		"-U", m.cfg.DBUser,
	}

	run := func(db string, args ...string) error {
		cmd := exec.CommandContext(ctx, "psql", append(append(base[:len(base):len(base)], "-d", db), args...)...)
		cmd.Env = env
		out, err := cmd.CombinedOutput()
		if err != nil {
			return fmt.Errorf("psql failed: %w: %s", err, string(out))
		}
		return nil
	}

	if err := run("postgres", "-c", fmt.Sprintf("DROP DATABASE IF EXISTS %q;", m.cfg.DBName)); err != nil {
		return fmt.Errorf("failed to drop database: %w", err)
	}
	if err := run("postgres", "-c", fmt.Sprintf("CREATE DATABASE %q OWNER %q;", m.cfg.DBName, m.cfg.DBUser)); err != nil {
		return fmt.Errorf("failed to recreate database: %w", err)
	}

	cmd := exec.CommandContext(ctx, "psql", append(base, "-d", m.cfg.DBName, "--set", "ON_ERROR_STOP=on")...)
	cmd.Env = env
	cmd.Stdin = dump
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to stream dump into database: %w: %s", err, string(out))
	}

	return nil
}
