package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/crewdesk/core/training"
)

type trainingApi struct {
	callerApi
	svc      training.Service
	validate *validator.Validate
}

// ExamDetail is an exam with its ordered questions.
type ExamDetail struct {
	training.Exam
	Questions []training.Question `json:"questions"`
}

func registerTrainingAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := trainingApi{
		callerApi: callerApi{users: deps.UserSvc, accounts: deps.AccountSvc},
		svc:       deps.TrainingSvc,
		validate:  deps.Validate,
	}

	eg := g.Group("/exams", jwt)
	eg.GET("", api.query)
	eg.POST("", api.create, managerMiddleware())
	eg.GET("/:id", api.retrieve)
	eg.PUT("/:id", api.update, managerMiddleware())
	eg.DELETE("/:id", api.destroy, managerMiddleware())
	eg.GET("/:id/questions", api.questions)
	eg.POST("/:id/questions", api.addQuestion, managerMiddleware())
	eg.POST("/:id/submit", api.submit)

	g.GET("/results", api.results, jwt)
}

func (api *trainingApi) query(ctx echo.Context) error {
	var filter training.ExamFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to ExamFilter")
	}
	exams, err := api.svc.QueryExams(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying exams")
	}
	return ctx.JSON(http.StatusOK, exams)
}

// retrieve returns the exam to take; correct flags are only shown to managers.
func (api *trainingApi) retrieve(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	caller, err := api.caller(ctx)
	if err != nil {
		return err
	}

	rctx := ctx.Request().Context()
	e, err := api.svc.GetExam(rctx, id)
	if err != nil {
		return errors.Wrap(err, "finding exam")
	}
	questions, err := api.svc.Questions(rctx, caller, id)
	if err != nil {
		return errors.Wrap(err, "querying questions")
	}
	return ctx.JSON(http.StatusOK, ExamDetail{Exam: e, Questions: questions})
}

func (api *trainingApi) bindExam(ctx echo.Context) (training.NewExam, error) {
	var data training.NewExam
	if err := ctx.Bind(&data); err != nil {
		return data, errors.Wrap(err, "binding to NewExam")
	}
	return data, data.Validate(api.validate)
}

func (api *trainingApi) create(ctx echo.Context) error {
	caller, err := api.caller(ctx)
	if err != nil {
		return err
	}
	data, err := api.bindExam(ctx)
	if err != nil {
		return err
	}
	e, err := api.svc.CreateExam(ctx.Request().Context(), caller, data)
	if err != nil {
		return errors.Wrap(err, "creating exam")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *trainingApi) update(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	caller, err := api.caller(ctx)
	if err != nil {
		return err
	}
	data, err := api.bindExam(ctx)
	if err != nil {
		return err
	}
	e, err := api.svc.UpdateExam(ctx.Request().Context(), caller, id, data)
	if err != nil {
		return errors.Wrap(err, "updating exam")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *trainingApi) destroy(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	caller, err := api.caller(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteExam(ctx.Request().Context(), caller, id); err != nil {
		return errors.Wrap(err, "deleting exam")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *trainingApi) questions(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	caller, err := api.caller(ctx)
	if err != nil {
		return err
	}
	questions, err := api.svc.Questions(ctx.Request().Context(), caller, id)
	if err != nil {
		return errors.Wrap(err, "querying questions")
	}
	return ctx.JSON(http.StatusOK, questions)
}

func (api *trainingApi) addQuestion(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	caller, err := api.caller(ctx)
	if err != nil {
		return err
	}
	var data training.NewQuestion
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewQuestion")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	q, err := api.svc.AddQuestion(ctx.Request().Context(), caller, id, data)
	if err != nil {
		return errors.Wrap(err, "adding question")
	}
	return ctx.JSON(http.StatusCreated, q)
}

// submit grades a form (`question_<id>=<choiceID>`) or JSON (`{"answers": {...}}`) submission.
func (api *trainingApi) submit(ctx echo.Context) error {
	id, err := paramID(ctx, "id")
	if err != nil {
		return err
	}
	caller, err := api.caller(ctx)
	if err != nil {
		return err
	}
	answers, err := bindAnswers(ctx)
	if err != nil {
		return err
	}

	grade, err := api.svc.Grade(ctx.Request().Context(), caller, id, answers)
	if err != nil {
		return errors.Wrap(err, "grading exam")
	}
	return ctx.JSON(http.StatusCreated, grade)
}

func (api *trainingApi) results(ctx echo.Context) error {
	caller, err := api.caller(ctx)
	if err != nil {
		return err
	}
	results, err := api.svc.Results(ctx.Request().Context(), caller)
	if err != nil {
		return errors.Wrap(err, "querying results")
	}
	return ctx.JSON(http.StatusOK, results)
}
