package controller

import (
	"errors"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/filedock/filedock/logger"
	"github.com/filedock/filedock/util/common"
	"github.com/filedock/filedock/web/entity"
	"github.com/filedock/filedock/web/service"
	"github.com/filedock/filedock/web/session"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"
)

// FileController serves the file and folder routes.
type FileController struct {
	BaseController

	fileService    *service.FileService
	maxUploadBytes int64
}

// NewFileController registers the file routes on g. Reads require a login only
// when privateRead is set; every mutation always requires one.
func NewFileController(g *gin.RouterGroup, fileService *service.FileService, maxUploadBytes int64, privateRead bool) *FileController {
	a := &FileController{
		BaseController: BaseController{privateRead: privateRead},
		fileService:    fileService,
		maxUploadBytes: maxUploadBytes,
	}
	a.initRouter(g)
	return a
}

func (a *FileController) initRouter(g *gin.RouterGroup) {
	g.POST("/upload", a.checkLogin, a.upload)
	g.POST("/create-folder", a.checkLogin, a.createFolder)
	g.DELETE("/delete", a.checkLogin, a.delete)
	g.POST("/rename", a.checkLogin, a.rename)
	g.POST("/move", a.checkLogin, a.move)

	g.GET("/files", a.checkRead, a.list)
	g.GET("/preview/*filename", a.checkRead, a.preview)
	g.GET("/preview-markdown/*filename", a.checkRead, a.previewMarkdown)
	g.GET("/download/*filename", a.checkRead, a.download)
	g.GET("/qrcode/*filename", a.checkRead, a.qrcode)
}

func username(c *gin.Context) string {
	if u := session.GetLoginUser(c); u != nil {
		return u.Username
	}
	return "anonymous"
}

func (a *FileController) upload(c *gin.Context) {
	if a.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, a.maxUploadBytes)
	}
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			size := common.FormatSize(uint64(a.maxUploadBytes))
			pureJsonMsg(c, http.StatusRequestEntityTooLarge, service.KindValidation, I18nWeb(c, "files.tooLarge", "Size=="+size))
			return
		}
		pureJsonMsg(c, http.StatusBadRequest, service.KindValidation, I18nWeb(c, "files.noSelectedFile"))
		return
	}
	src, err := fh.Open()
	if err != nil {
		jsonError(c, err)
		return
	}
	defer src.Close()

	rel, err := a.fileService.Save(c.PostForm("folder"), fh.Filename, src)
	if err != nil {
		jsonError(c, err)
		return
	}
	logger.Infof("%s uploaded %s (%d bytes)", username(c), rel, fh.Size)
	jsonMsg(c, I18nWeb(c, "files.uploaded", "Name=="+rel))
}

func (a *FileController) list(c *gin.Context) {
	listing, err := a.fileService.List(c.Query("folder"))
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, listing)
}

func (a *FileController) createFolder(c *gin.Context) {
	var form entity.CreateFolderForm
	if !bindJSON(c, &form) {
		return
	}
	rel, err := a.fileService.CreateFolder(form.FolderName, form.BaseFolder)
	if err != nil {
		jsonError(c, err)
		return
	}
	logger.Infof("%s created folder %s", username(c), rel)
	jsonMsg(c, I18nWeb(c, "files.folderCreated", "Name=="+rel))
}

func (a *FileController) delete(c *gin.Context) {
	var form entity.DeleteForm
	if !bindJSON(c, &form) {
		return
	}
	if err := a.fileService.Delete(form.Path); err != nil {
		jsonError(c, err)
		return
	}
	jsonMsg(c, I18nWeb(c, "files.deleted", "Path=="+form.Path))
}

func (a *FileController) rename(c *gin.Context) {
	var form entity.RenameForm
	if !bindJSON(c, &form) {
		return
	}
	rel, err := a.fileService.Rename(form.Path, form.NewName, form.Type)
	if err != nil {
		jsonError(c, err)
		return
	}
	logger.Infof("%s renamed %s to %s", username(c), form.Path, rel)
	jsonMsg(c, I18nWeb(c, "files.renamed", "Name=="+rel))
}

func (a *FileController) move(c *gin.Context) {
	var form entity.MoveForm
	if !bindJSON(c, &form) {
		return
	}
	rel, err := a.fileService.Move(form.SrcPath, form.DestFolder)
	if err != nil {
		jsonError(c, err)
		return
	}
	logger.Infof("%s moved %s to %s", username(c), form.SrcPath, rel)
	jsonMsg(c, I18nWeb(c, "files.moved", "Name=="+rel))
}

// contentDisposition builds the header value for name, keeping non-ASCII names intact.
func contentDisposition(kind, name string) string {
	return kind + "; filename*=UTF-8''" + url.PathEscape(name)
}

func (a *FileController) preview(c *gin.Context) {
	abs, err := a.fileService.Open(c.Query("folder"), c.Param("filename"))
	if err != nil {
		jsonError(c, err)
		return
	}
	c.Header("Content-Disposition", contentDisposition("inline", filepath.Base(abs)))
	c.File(abs)
}

func (a *FileController) download(c *gin.Context) {
	abs, err := a.fileService.Open(c.Query("folder"), c.Param("filename"))
	if err != nil {
		jsonError(c, err)
		return
	}
	c.Header("Content-Disposition", contentDisposition("attachment", filepath.Base(abs)))
	c.File(abs)
}

func (a *FileController) previewMarkdown(c *gin.Context) {
	html, err := a.fileService.RenderMarkdown(c.Query("folder"), c.Param("filename"))
	if err != nil {
		jsonError(c, err)
		return
	}
	c.JSON(http.StatusOK, entity.MarkdownPreview{HTML: html})
}

// downloadURL is the absolute URL of the download route for the same file.
func downloadURL(c *gin.Context, folder, filename string) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	host := c.GetHeader("X-Forwarded-Host")
	if host == "" {
		host = c.Request.Host
	}

	segments := strings.Split(strings.TrimPrefix(filename, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	u := scheme + "://" + host + "/download/" + strings.Join(segments, "/")
	if folder != "" {
		u += "?folder=" + url.QueryEscape(folder)
	}
	return u
}

func (a *FileController) qrcode(c *gin.Context) {
	folder, filename := c.Query("folder"), c.Param("filename")
	if _, err := a.fileService.Open(folder, filename); err != nil {
		jsonError(c, err)
		return
	}
	png, err := qrcode.Encode(downloadURL(c, folder, filename), qrcode.Medium, 256)
	if err != nil {
		jsonError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
