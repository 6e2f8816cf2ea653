package training

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/trezcool/crewdesk/core"
	"github.com/trezcool/crewdesk/core/account"
)

// score counts the questions whose selected choice belongs to them and is correct.
// Unanswered questions and unknown or foreign choice ids count as incorrect.
func score(questions []Question, answers Answers) (correct, total int, percentage float64) {
	total = len(questions)
	for _, q := range questions {
		choiceID, ok := answers[q.ID]
		if !ok {
			continue
		}
		for _, c := range q.Choices {
			if c.ID == choiceID {
				if c.IsCorrect {
					correct++
				}
				break
			}
		}
	}
	if total == 0 {
		return correct, total, 0
	}
	return correct, total, core.Round2(100 * float64(correct) / float64(total))
}

func (svc *service) Grade(ctx context.Context, caller account.Caller, examID int64, answers Answers) (Grade, error) {
	profID, err := caller.RequireProfile()
	if err != nil {
		return Grade{}, err
	}
	exam, err := svc.repo.GetExam(ctx, examID)
	if err != nil {
		return Grade{}, err
	}
	questions, err := svc.repo.QueryQuestions(ctx, examID)
	if err != nil {
		return Grade{}, errors.Wrap(err, "querying questions")
	}

	correct, total, pct := score(questions, answers)
	passed := pct >= float64(exam.PassingScore)

	res, err := svc.repo.CreateResult(ctx, ExamResult{
		ProfileID:   profID,
		ExamID:      exam.ID,
		Score:       pct,
		Passed:      passed,
		SubmittedAt: svc.now(),
	})
	if err != nil {
		return Grade{}, errors.Wrap(err, "saving exam result")
	}

	observeSubmission(res)
	svc.notify(caller, exam, res)

	return Grade{Score: pct, Passed: passed, Correct: correct, Total: total, Result: res}, nil
}

// notify emails the result to the caller.
func (svc *service) notify(caller account.Caller, exam Exam, res ExamResult) {
	if svc.mailer == nil || caller.Email == "" {
		return
	}
	addr, err := mail.ParseAddress(caller.Email)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("invalid email address for exam result: %v", err), err, caller)
		return
	}
	addr.Name = caller.Name

	svc.mailer.SendMessages(&core.EmailMessage{
		To:           []mail.Address{*addr},
		Subject:      fmt.Sprintf("Your result for %s", exam.Title),
		TemplateName: "exam_result",
		TemplateData: map[string]interface{}{
			"Name":         caller.Name,
			"ExamTitle":    exam.Title,
			"Score":        res.Score,
			"PassingScore": exam.PassingScore,
			"Passed":       res.Passed,
		},
	})
}
