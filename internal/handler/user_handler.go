package handler

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"workin-messenger/internal/model"
	"workin-messenger/internal/service"
	"workin-messenger/pkg/jwt"
	"workin-messenger/pkg/response"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	service      *service.UserService
	maxImageSize int64
}

func NewUserHandler(s *service.UserService, maxImageSize int64) *UserHandler {
	return &UserHandler{service: s, maxImageSize: maxImageSize}
}

// tokenForm OAuth2 密码模式表单
type tokenForm struct {
	Username  string `form:"username" binding:"required"`
	Password  string `form:"password" binding:"required"`
	GrantType string `form:"grant_type" binding:"omitempty,eq=password"`
}

type registerForm struct {
	Username  string `form:"username" binding:"required"`
	FirstName string `form:"first_name" binding:"required"`
	LastName  string `form:"last_name" binding:"required"`
	Phone     string `form:"phone" binding:"required"`
	Sex       string `form:"sex" binding:"required,oneof=Man Woman"`
	Email     string `form:"email" binding:"required,email"`
	Password  string `form:"password" binding:"required"`
}

// changeAccountForm 空字符串视为未提供
type changeAccountForm struct {
	Password    string `form:"password" binding:"required"`
	FirstName   string `form:"first_name"`
	LastName    string `form:"last_name"`
	Phone       string `form:"phone"`
	Sex         string `form:"sex" binding:"omitempty,oneof=Man Woman"`
	Email       string `form:"email" binding:"omitempty,email"`
	NewPassword string `form:"new_password"`
}

// Token 登录，返回 OAuth2 风格的访问令牌
func (h *UserHandler) Token(c *gin.Context) {
	var f tokenForm
	if err := c.ShouldBind(&f); err != nil {
		writeBindError(c, err)
		return
	}

	_, token, err := h.service.Login(c.Request.Context(), f.Username, f.Password)
	if err != nil {
		if errors.Is(err, service.ErrUnauthorized) {
			response.Unauthorized(c, "Incorrect username or password")
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
	})
}

// Register 用户注册（multipart，可选头像 image）
func (h *UserHandler) Register(c *gin.Context) {
	var f registerForm
	if err := c.ShouldBind(&f); err != nil {
		writeBindError(c, err)
		return
	}
	image, err := h.readImage(c)
	if err != nil {
		writeError(c, err)
		return
	}

	user, err := h.service.Register(c.Request.Context(), service.RegisterInput{
		Username:  f.Username,
		FirstName: f.FirstName,
		LastName:  f.LastName,
		Phone:     f.Phone,
		Sex:       model.Sex(f.Sex),
		Email:     f.Email,
		Password:  f.Password,
		Image:     image,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	response.Created(c, "注册成功", response.FilterUserInfo(user))
}

// ChangeAccount 修改当前用户账户，需要当前密码
func (h *UserHandler) ChangeAccount(c *gin.Context) {
	var f changeAccountForm
	if err := c.ShouldBind(&f); err != nil {
		writeBindError(c, err)
		return
	}
	image, err := h.readImage(c)
	if err != nil {
		writeError(c, err)
		return
	}

	in := service.ChangeAccountInput{
		CurrentPassword: f.Password,
		Changes: service.AccountChanges{
			FirstName: optional(f.FirstName),
			LastName:  optional(f.LastName),
			Phone:     optional(f.Phone),
			Email:     optional(f.Email),
		},
		NewPassword: optional(f.NewPassword),
		Image:       image,
	}
	if f.Sex != "" {
		sex := model.Sex(f.Sex)
		in.Changes.Sex = &sex
	}

	user, err := h.service.ChangeAccount(c.Request.Context(), jwt.GetCurrentUser(c), in)
	if err != nil {
		writeError(c, err)
		return
	}

	response.SuccessWithMessage(c, "账户已更新", response.FilterUserInfo(user))
}

// Me 当前用户资料
func (h *UserHandler) Me(c *gin.Context) {
	user := jwt.GetCurrentUser(c)
	if user == nil {
		writeError(c, service.ErrUnauthorized)
		return
	}
	response.Success(c, response.FilterUserInfo(user))
}

// Search 按用户名子串搜索用户
func (h *UserHandler) Search(c *gin.Context) {
	var q struct {
		Username string `form:"username" binding:"required"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		writeBindError(c, err)
		return
	}

	users, err := h.service.SearchUsers(c.Request.Context(), q.Username)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, response.FilterUserList(users))
}

// readImage 读取可选的 image 文件字段，未上传时返回 nil
func (h *UserHandler) readImage(c *gin.Context) (*service.ImageUpload, error) {
	fh, err := c.FormFile("image")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, fmt.Errorf("read image: %w", err)
	}
	if h.maxImageSize > 0 && fh.Size > h.maxImageSize {
		return nil, errImageTooLarge
	}

	data, err := readAll(fh, h.maxImageSize)
	if err != nil {
		return nil, err
	}
	return &service.ImageUpload{Filename: fh.Filename, Data: data}, nil
}

func readAll(fh *multipart.FileHeader, limit int64) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if limit > 0 {
		r = io.LimitReader(f, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, errImageTooLarge
	}
	return data, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
