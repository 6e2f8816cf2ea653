package main

import (
	"context"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/trezcool/crewdesk/core/account"
	"github.com/trezcool/crewdesk/core/training"
)

// adminCaller runs catalog authoring with manager capabilities.
var adminCaller = account.Caller{Name: "admin", IsManager: true}

// examFile is the YAML layout of an exam authored offline.
// The job is referenced either by `job_id` or by its `job` title.
type examFile struct {
	training.NewExam `yaml:",inline"`
	Job              string                 `yaml:"job"`
	Questions        []training.NewQuestion `yaml:"questions"`
}

func (cli *commandLine) importExamCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-exam FILE.yaml",
		Short: "Create an exam and its questions from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return errors.Wrap(err, "reading exam file")
			}
			e, err := cli.importExam(cmd.Context(), data)
			if err != nil {
				return err
			}
			cmd.Printf("imported %s (id: %d)\n", e, e.ID)
			return nil
		},
	}
}

func (cli *commandLine) importExam(ctx context.Context, data []byte) (training.Exam, error) {
	var f examFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return training.Exam{}, errors.Wrap(err, "parsing exam file")
	}

	if f.JobID == 0 && f.Job != "" {
		jobID, err := cli.jobByTitle(ctx, f.Job)
		if err != nil {
			return training.Exam{}, err
		}
		f.JobID = jobID
	}
	if err := f.NewExam.Validate(cli.validate); err != nil {
		return training.Exam{}, errors.Wrap(err, "validating exam")
	}
	for i := range f.Questions {
		if err := f.Questions[i].Validate(cli.validate); err != nil {
			return training.Exam{}, errors.Wrapf(err, "validating question %d", i+1)
		}
	}

	return cli.trainingSvc.ImportExam(ctx, adminCaller, f.NewExam, f.Questions)
}

func (cli *commandLine) jobByTitle(ctx context.Context, title string) (int64, error) {
	jobs, err := cli.jobSvc.QueryJobs(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "querying jobs")
	}
	for _, j := range jobs {
		if strings.EqualFold(j.Title, strings.TrimSpace(title)) {
			return j.ID, nil
		}
	}
	return 0, errors.Errorf("no job titled %q", title)
}
