package initcmd

import "io/fs"

type fileSpec struct {
	Path string
	Data string
	Mode fs.FileMode
}

// template is a named starter set of workspace files.
type template struct {
	Name        string
	Description string
	Files       []fileSpec
}

type Action string

const (
	ActionCreate    Action = "create"
	ActionOverwrite Action = "overwrite"
)

type op struct {
	Action Action
	Path   string // relative (for reporting)
	Abs    string // absolute target
	Mode   fs.FileMode
	Data   string
}
