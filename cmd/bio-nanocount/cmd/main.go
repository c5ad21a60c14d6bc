package cmd

import (
	"sync"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/file/s3file"
	"v.io/x/lib/cmdline"
)

var registerS3Once sync.Once

// registerS3 lets every path flag and argument name an s3:// object.
func registerS3() {
	registerS3Once.Do(func() {
		file.RegisterImplementation("s3", func() file.Implementation {
			return s3file.NewImplementation(s3file.NewDefaultProvider(session.Options{}), s3file.Options{})
		})
	})
}

func newCmdRoot() *cmdline.Command {
	return &cmdline.Command{
		Name:     "bio-nanocount",
		Short:    "Estimate transcript abundances from long-read alignments",
		LookPath: false,
		Children: []*cmdline.Command{
			newCmdCount(),
			newCmdEM(),
		},
	}
}

// Run parses the command line and runs the selected subcommand.
func Run() {
	registerS3()
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(newCmdRoot())
}
