package echoapi

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/crewdesk/core"
	"github.com/trezcool/crewdesk/core/schedule"
	"github.com/trezcool/crewdesk/core/training"
)

const (
	orderingParam  = "ordering"
	questionPrefix = "question_"
	dateLayout     = "2006-01-02"
)

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	val := ctx.QueryParam(orderingParam)
	if val == "" {
		return
	}

	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field != "" {
			ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
		}
	}
}

func paramID(ctx echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(ctx.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errHttpNotFound
	}
	return id, nil
}

// answersFromForm reads `question_<id>=<choiceID>` pairs. Malformed pairs are ignored
// and grade as unanswered.
func answersFromForm(form url.Values) training.Answers {
	answers := make(training.Answers)
	for key, vals := range form {
		if !strings.HasPrefix(key, questionPrefix) || len(vals) == 0 {
			continue
		}
		qID, err := strconv.ParseInt(strings.TrimPrefix(key, questionPrefix), 10, 64)
		if err != nil {
			continue
		}
		cID, err := strconv.ParseInt(strings.TrimSpace(vals[0]), 10, 64)
		if err != nil {
			continue
		}
		answers[qID] = cID
	}
	return answers
}

// submission is the JSON body of an exam submission.
type submission struct {
	Answers map[string]int64 `json:"answers"`
}

func (s submission) answers() training.Answers {
	answers := make(training.Answers, len(s.Answers))
	for key, cID := range s.Answers {
		qID, err := strconv.ParseInt(strings.TrimPrefix(key, questionPrefix), 10, 64)
		if err == nil {
			answers[qID] = cID
		}
	}
	return answers
}

func bindAnswers(ctx echo.Context) (training.Answers, error) {
	if strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		var data submission
		if err := ctx.Bind(&data); err != nil {
			return nil, errors.Wrap(err, "binding to submission")
		}
		return data.answers(), nil
	}
	form, err := ctx.FormParams()
	if err != nil {
		return nil, errors.Wrap(err, "reading form")
	}
	return answersFromForm(form), nil
}

// bindDayFilter reads the `from` and `to` dates (YYYY-MM-DD).
func bindDayFilter(ctx echo.Context) (schedule.DayFilter, error) {
	var filter schedule.DayFilter
	parse := func(param string, dst *time.Time) error {
		val := strings.TrimSpace(ctx.QueryParam(param))
		if val == "" {
			return nil
		}
		d, err := time.Parse(dateLayout, val)
		if err != nil {
			return core.NewValidationError(err, core.FieldError{Field: param, Error: "invalid date, expected YYYY-MM-DD"})
		}
		*dst = d
		return nil
	}
	if err := parse("from", &filter.From); err != nil {
		return filter, err
	}
	if err := parse("to", &filter.To); err != nil {
		return filter, err
	}
	return filter, nil
}
