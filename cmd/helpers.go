package cmd

import (
	"github.com/ncdeploy/ncdeploy/internal/backup"
	"github.com/ncdeploy/ncdeploy/internal/crypto"
	"github.com/ncdeploy/ncdeploy/internal/docker"
	"github.com/ncdeploy/ncdeploy/internal/nextcloud"
	"github.com/ncdeploy/ncdeploy/internal/restore"
	"github.com/ncdeploy/ncdeploy/internal/secrets"
	"github.com/ncdeploy/ncdeploy/internal/update"
)

func buildOCC(env *appEnv, client *docker.Client) *nextcloud.Client {
	return nextcloud.NewClient(client, env.cfg.AppContainer, env.stack.OCC.Binary, env.stack.OCC.User)
}

func buildBackupManager(env *appEnv) (*backup.Manager, *docker.Client, error) {
	client, err := docker.NewClient()
	if err != nil {
		return nil, nil, err
	}

	engine, err := crypto.NewEngine(env.cfg)
	if err != nil {
		client.Close()
		return nil, nil, err
	}

	manager, err := backup.NewManager(
		env.cfg,
		env.stack,
		configPath,
		client,
		engine,
		buildOCC(env, client),
		secrets.NewStore(env.cfg.SecretsDir),
		env.log,
	)
	if err != nil {
		client.Close()
		return nil, nil, err
	}

	return manager, client, nil
}

func buildRestoreManager(env *appEnv) (*restore.Manager, *docker.Client, error) {
	client, err := docker.NewClient()
	if err != nil {
		return nil, nil, err
	}

	engine, err := crypto.NewEngine(env.cfg)
	if err != nil {
		client.Close()
		return nil, nil, err
	}

	manager := restore.NewManager(
		env.cfg,
		env.stack,
		client,
		engine,
		buildOCC(env, client),
		secrets.NewStore(env.cfg.SecretsDir),
		env.log,
		env.confirmer,
	)

	return manager, client, nil
}

func buildUpdater(env *appEnv, client *docker.Client) *update.Updater {
	compose := docker.NewCompose(env.cfg.ComposeProject, env.cfg.ComposeFile)
	return update.NewUpdater(
		env.cfg,
		env.stack,
		docker.NewRuntime(client, compose),
		buildOCC(env, client),
		env.log,
		env.confirmer,
	)
}

// withOpLock wraps an orchestrator invocation in the advisory lock that
// keeps concurrent runs off the shared directories.
func withOpLock(env *appEnv, fn func() error) error {
	lock := backup.NewOpLock(env.cfg.BackupDir)
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer lock.Release()

	return fn()
}

func renderEncrypted(encrypted bool) string {
	if encrypted {
		return successStyle.Render("encrypted")
	}
	return dimStyle.Render("plaintext")
}
