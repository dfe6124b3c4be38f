package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"mgmtapi/pkg/common"
	pkgerrors "mgmtapi/pkg/errors"
)

// respondServiceError maps an application error onto the response envelope
func respondServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	if appErr := pkgerrors.GetAppError(err); appErr != nil {
		if appErr.HTTPStatus >= http.StatusInternalServerError {
			logger.Error("request failed", zap.Error(err))
		}
		common.RespondError(w, appErr.HTTPStatus, string(appErr.Type), appErr.Message)
		return
	}
	logger.Error("request failed", zap.Error(err))
	common.RespondError(w, http.StatusInternalServerError, common.StandardErrorCodes.InternalError, "internal server error")
}
