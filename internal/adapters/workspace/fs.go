package workspace

import "github.com/spf13/afero"

// FsFactory returns the filesystem workspaces are read from and written to.
var FsFactory = func() afero.Fs {
	return afero.NewOsFs()
}
