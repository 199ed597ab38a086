package docker

import "time"

const (
	ImagePullTimeout   = 10 * time.Minute
	ContainerOpTimeout = 60 * time.Second
	ExecTimeout        = 30 * time.Minute
	VolumeCopyTimeout  = 60 * time.Minute
	ComposeOpTimeout   = 10 * time.Minute
)
