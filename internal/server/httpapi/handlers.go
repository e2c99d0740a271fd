// Package httpapi is the REST surface of mediasrv: operator login, upload
// signatures, the proxied upload and origin storage presigning.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/mediaupload/internal/common"
	"github.com/dmitrijs2005/mediaupload/internal/logging"
	"github.com/dmitrijs2005/mediaupload/internal/server/services"
	"github.com/gin-gonic/gin"
)

// Authenticator logs operators in and validates their tokens.
type Authenticator interface {
	Login(ctx context.Context, username string, password []byte) (string, error)
	Authenticate(token string) (string, error)
}

type Signer interface {
	Issue(folder, transformation string) services.Signature
}

type Proxy interface {
	Upload(ctx context.Context, req services.ProxyRequest, digest string) (services.ProxyResponse, error)
}

type Presigner interface {
	PresignPut(ctx context.Context, fileName, mimeType, folder string) (services.Presign, error)
}

// Handler serves the API endpoints.
type Handler struct {
	auth      Authenticator
	signer    Signer
	proxy     Proxy
	presigner Presigner
	logger    logging.Logger
}

func NewHandler(auth Authenticator, signer Signer, proxy Proxy, presigner Presigner, logger logging.Logger) *Handler {
	return &Handler{
		auth:      auth,
		signer:    signer,
		proxy:     proxy,
		presigner: presigner,
		logger:    logger.With("module", "httpapi"),
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Username, []byte(req.Password))
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		h.logger.Error(c.Request.Context(), "login failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"accessToken": token})
}

type signatureRequest struct {
	Folder         string `json:"folder"`
	OrderID        string `json:"orderId"`
	SessionID      string `json:"sessionId"`
	ProductID      string `json:"productId"`
	Transformation string `json:"transformation"`
}

// folder mirrors the client-side resolution so older clients that only send
// ids still land in the right place.
func (r signatureRequest) folder() (string, error) {
	var f string
	switch {
	case strings.Trim(r.Folder, "/") != "":
		f = strings.Trim(r.Folder, "/")
	case r.OrderID != "":
		f = "orders/" + r.OrderID
	case r.SessionID != "":
		f = "sessions/" + r.SessionID
	case r.ProductID != "":
		f = "products/" + r.ProductID
	default:
		f = "uploads"
	}
	return f, checkFolder(f)
}

func checkFolder(f string) error {
	for _, seg := range strings.Split(f, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("invalid folder %q", f)
		}
	}
	return nil
}

func (h *Handler) Signature(c *gin.Context) {
	var req signatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request"})
		return
	}
	folder, err := req.folder()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sig := h.signer.Issue(folder, req.Transformation)
	h.logger.Debug(c.Request.Context(), "signature issued", "user", userID(c), "folder", folder, "public_id", sig.PublicID)
	c.JSON(http.StatusOK, sig)
}

func (h *Handler) ProxyUpload(c *gin.Context) {
	var req services.ProxyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, services.ProxyResponse{Error: "malformed request"})
		return
	}
	if req.Folder != "" {
		if err := checkFolder(strings.Trim(req.Folder, "/")); err != nil {
			c.JSON(http.StatusBadRequest, services.ProxyResponse{Error: err.Error()})
			return
		}
	}

	resp, err := h.proxy.Upload(c.Request.Context(), req, c.GetHeader(common.ContentDigestHeaderName))
	if err != nil {
		status := http.StatusBadGateway
		if errors.Is(err, common.ErrValidation) {
			status = http.StatusUnprocessableEntity
		}
		h.logger.Warn(c.Request.Context(), "proxy upload failed", "user", userID(c), "file", req.FileName, "error", err)
		c.JSON(status, services.ProxyResponse{Error: err.Error()})
		return
	}

	h.logger.Info(c.Request.Context(), "proxy upload stored", "user", userID(c), "key", resp.PublicID, "bytes", resp.OriginalSize)
	c.JSON(http.StatusOK, resp)
}

type presignRequest struct {
	FileName string `json:"fileName" binding:"required"`
	MimeType string `json:"mimeType"`
	Folder   string `json:"folder"`
}

func (h *Handler) Presign(c *gin.Context) {
	var req presignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "fileName is required"})
		return
	}
	folder := strings.Trim(req.Folder, "/")
	if folder == "" {
		folder = "uploads"
	}
	if err := checkFolder(folder); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.presigner.PresignPut(c.Request.Context(), req.FileName, req.MimeType, folder)
	if err != nil {
		h.logger.Error(c.Request.Context(), "presign failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "storage unavailable"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}
