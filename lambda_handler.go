package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"

	"lostark-battlepoint/internal/armory"
	"lostark-battlepoint/internal/battlepoint"
)

var jsonHeader = map[string]string{
	"Content-Type": "application/json",
}

type scoreResponse struct {
	Name        string `json:"name"`
	Class       string `json:"class"`
	ScoreType   string `json:"scoreType"`
	Score       int64  `json:"score"`
	Care        int64  `json:"care"`
	Total       int64  `json:"total"`
	CombatPower string `json:"combatPower"`
	Reported    string `json:"reported"`
}

type lambdaHandler func(context.Context, events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error)

// newHandler scores the snapshot posted as the request body. The query
// parameter type selects attack (default) or defense.
func newHandler(e *battlepoint.Engine) lambdaHandler {
	return func(_ context.Context, event events.LambdaFunctionURLRequest) (events.LambdaFunctionURLResponse, error) {
		body := event.Body
		if event.IsBase64Encoded {
			decoded, err := base64.StdEncoding.DecodeString(body)
			if err != nil {
				return errResp(http.StatusBadRequest, "invalid base64 body")
			}
			body = string(decoded)
		}
		if body == "" {
			return errResp(http.StatusBadRequest, "missing snapshot body")
		}

		st := battlepoint.ScoreAttack
		if q := event.QueryStringParameters["type"]; q != "" {
			var ok bool
			if st, ok = battlepoint.ParseScoreType(q); !ok {
				return errResp(http.StatusBadRequest, fmt.Sprintf("invalid type %q", q))
			}
		}

		ch, err := armory.Parse([]byte(body))
		if err != nil {
			log.Warn().Err(err).Msg("snapshot rejected")
			return errResp(http.StatusUnprocessableEntity, err.Error())
		}
		score, err := e.Calc(ch, st)
		if err != nil {
			code := http.StatusInternalServerError
			if errors.Is(err, battlepoint.ErrPointBudgetExceeded) || errors.Is(err, armory.ErrSchema) || errors.Is(err, armory.ErrGrammarMismatch) {
				code = http.StatusUnprocessableEntity
			}
			log.Warn().Err(err).Str("character", ch.Name).Msg("score failed")
			return errResp(code, err.Error())
		}
		log.Info().Str("character", ch.Name).Str("type", string(st)).Int64("score", score.Total).Msg("scored")

		resp := scoreResponse{
			Name:        ch.Name,
			Class:       ch.ClassName,
			ScoreType:   string(st),
			Score:       score.Value,
			Care:        score.Care,
			Total:       score.Total,
			CombatPower: FormatCombatPower(score.Total),
			Reported:    ch.ReportedCombatPower,
		}
		respJSON, _ := sonic.Marshal(resp)
		return events.LambdaFunctionURLResponse{StatusCode: http.StatusOK, Headers: jsonHeader, Body: string(respJSON)}, nil
	}
}

func errResp(code int, msg string) (events.LambdaFunctionURLResponse, error) {
	body, _ := sonic.Marshal(map[string]string{"error": msg})
	return events.LambdaFunctionURLResponse{StatusCode: code, Headers: jsonHeader, Body: string(body)}, nil
}
