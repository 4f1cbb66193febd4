/*
Package handler provides the HTTP handlers and routing setup for the chat
server.

This file contains the multipart upload endpoint. It is a stateless
store-and-return-URL operation: the returned URL is embedded by clients as an
opaque message attachment.
*/
package handler

import (
	"net/http"

	"sockchat/internal/app/chat"
	"sockchat/internal/pkg/errs"
	"sockchat/internal/pkg/logx"
	"sockchat/internal/pkg/randx"
	"sockchat/internal/pkg/req"
	"sockchat/internal/pkg/resp"
)

// HandleUpload accepts a multipart file under the "file" field, validates its
// size and type, stores it, and returns the attachment descriptor.
func HandleUpload(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if customErr := req.SetupMultipart(w, r); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			resp.RespondError(w, r, errs.NewError(errs.ErrFormParseFailed))
			return
		}
		defer file.Close()

		if customErr := chat.ValidateFileSize(header.Size); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		mimeType := header.Header.Get("Content-Type")
		if customErr := chat.ValidateFileType(header.Filename, mimeType); customErr != nil {
			resp.RespondError(w, r, customErr)
			return
		}

		key := randx.FileKey(header.Filename)

		url, err := deps.StorageService.Store(r.Context(), key, mimeType, file)
		if err != nil {
			logx.Error(err, "Failed to store uploaded file", "key", key)
			resp.RespondError(w, r, errs.NewError(errs.ErrFileStorageFailed))
			return
		}

		resp.RespondSuccess(w, r, chat.Attachment{
			URL:      url,
			Name:     header.Filename,
			MimeType: mimeType,
		})
	}
}
