package initcmd

const (
	DefaultDir      = "."
	DefaultTemplate = "standard"
)

const (
	fileConfig  = ".nethop/config.hop"
	fileExample = ".nethop/example.hop"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)
