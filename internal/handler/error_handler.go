package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	apperrors "marketplace/internal/errors"
	"marketplace/internal/view"
)

// ErrorHandler renders failures as an error page, or as JSON when the client asks for it.
// Server-side failures are logged with the request id; their details never reach the client.
func ErrorHandler(log logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		httpErr := classify(err)
		if httpErr.StatusCode >= http.StatusInternalServerError {
			log.WithError(err).WithFields(logrus.Fields{
				"method":     c.Request().Method,
				"uri":        c.Request().RequestURI,
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
				"kind":       apperrors.KindOf(err).String(),
			}).Error("request failed")
		}

		var werr error
		switch {
		case c.Request().Method == http.MethodHead:
			werr = c.NoContent(httpErr.StatusCode)
		case wantsJSON(c):
			werr = c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
		default:
			page := newPage(c, httpErr.Message)
			if werr = c.Render(httpErr.StatusCode, view.PageError, page); werr != nil {
				werr = c.String(httpErr.StatusCode, httpErr.Message)
			}
		}
		if werr != nil {
			log.WithError(werr).Warn("write error response")
		}
	}
}

func classify(err error) *apperrors.HTTPError {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		msg := http.StatusText(he.Code)
		switch m := he.Message.(type) {
		case string:
			msg = m
		case apperrors.ErrorResponse:
			return apperrors.NewHTTPError(he.Code, m.Error, m.Code)
		case error:
			msg = m.Error()
		case nil:
		default:
			msg = fmt.Sprint(m)
		}
		return apperrors.NewHTTPError(he.Code, msg, strings.ToUpper(strings.ReplaceAll(http.StatusText(he.Code), " ", "_")))
	}
	return apperrors.MapErrorToHTTP(err)
}

func wantsJSON(c echo.Context) bool {
	accept := c.Request().Header.Get(echo.HeaderAccept)
	return strings.Contains(accept, echo.MIMEApplicationJSON) && !strings.Contains(accept, echo.MIMETextHTML)
}
