package training

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/crewdesk/core/account"
	"github.com/trezcool/crewdesk/core/job"
)

func examIDs(exams []Exam) []int64 {
	ids := make([]int64, 0, len(exams))
	for _, e := range exams {
		ids = append(ids, e.ID)
	}
	return ids
}

// AvailableExams lists the exams of every job assigned to the caller's profile,
// minus the ones already passed, each annotated with the latest attempt.
func (svc *service) AvailableExams(ctx context.Context, caller account.Caller) (Availability, error) {
	avail := Availability{Exams: []AvailableExam{}}
	profID, err := caller.RequireProfile()
	if err != nil {
		avail.Error = msgNoProfile
		return avail, nil
	}

	jobIDs, err := svc.jobs.ProfileJobIDs(ctx, profID)
	if err != nil {
		return Availability{}, errors.Wrap(err, "resolving profile jobs")
	}
	if len(jobIDs) == 0 {
		return avail, nil
	}

	exams, err := svc.repo.QueryExams(ctx, ExamFilter{JobIDs: jobIDs})
	if err != nil {
		return Availability{}, errors.Wrap(err, "querying exams")
	}

	passedIDs, err := svc.repo.PassedExamIDs(ctx, profID)
	if err != nil {
		return Availability{}, errors.Wrap(err, "querying passed exams")
	}
	passed := make(map[int64]struct{}, len(passedIDs))
	for _, id := range passedIDs {
		passed[id] = struct{}{}
	}

	candidates := make([]Exam, 0, len(exams))
	for _, e := range exams {
		if _, ok := passed[e.ID]; !ok {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return avail, nil
	}

	latest, err := svc.repo.LatestResults(ctx, profID, examIDs(candidates))
	if err != nil {
		return Availability{}, errors.Wrap(err, "querying latest results")
	}

	for _, e := range candidates {
		ae := AvailableExam{Exam: e, CanRetake: true}
		if res, ok := latest[e.ID]; ok {
			score, at := res.Score, res.SubmittedAt
			ae.HasTaken = true
			ae.Passed = res.Passed
			ae.Score = &score
			ae.LastAttempt = &at
			ae.CanRetake = !res.Passed
		}
		avail.Exams = append(avail.Exams, ae)
	}
	return avail, nil
}

func (svc *service) ExamStats(ctx context.Context) ([]ExamStat, error) {
	stats, err := svc.repo.ExamStats(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "computing exam stats")
	}
	for i := range stats {
		stats[i].SeasonLabel = SeasonLabel(stats[i].Season)
	}
	return stats, nil
}

// ProfileProgress buckets the exams of the caller's primary job by their latest result.
// A caller without a profile or a primary job gets zero counts and an error message.
func (svc *service) ProfileProgress(ctx context.Context, caller account.Caller) (Progress, error) {
	prog := Progress{
		Passed:    []ExamProgress{},
		Failed:    []ExamProgress{},
		Remaining: []Exam{},
	}
	profID, err := caller.RequireProfile()
	if err != nil {
		prog.Error = msgNoProfile
		return prog, nil
	}

	primary, err := svc.jobs.PrimaryJob(ctx, profID)
	if err != nil {
		if errors.Cause(err) == job.ErrNoPrimaryJob {
			prog.Error = msgNoPrimaryJob
			return prog, nil
		}
		return Progress{}, errors.Wrap(err, "resolving primary job")
	}
	prog.PrimaryJobID = primary.JobID
	prog.PrimaryJobTitle = primary.JobTitle

	exams, err := svc.repo.QueryExams(ctx, ExamFilter{JobIDs: []int64{primary.JobID}})
	if err != nil {
		return Progress{}, errors.Wrap(err, "querying exams")
	}
	latest := map[int64]ExamResult{}
	if len(exams) > 0 {
		if latest, err = svc.repo.LatestResults(ctx, profID, examIDs(exams)); err != nil {
			return Progress{}, errors.Wrap(err, "querying latest results")
		}
	}

	for _, e := range exams {
		res, ok := latest[e.ID]
		switch {
		case !ok:
			prog.Remaining = append(prog.Remaining, e)
		case res.Passed:
			prog.Passed = append(prog.Passed, ExamProgress{Exam: e, Result: res})
		default:
			prog.Failed = append(prog.Failed, ExamProgress{Exam: e, Result: res})
		}
	}

	prog.Total = len(exams)
	prog.PassedCount = len(prog.Passed)
	prog.FailedCount = len(prog.Failed)
	prog.RemainingCount = len(prog.Remaining)
	prog.Taken = prog.PassedCount + prog.FailedCount
	return prog, nil
}
