package service

import "errors"

var ErrInvalidCredentials = errors.New("email hoặc mật khẩu không đúng")
var ErrUserAlreadyExists = errors.New("email đã được đăng ký")
var ErrTokenInvalid = errors.New("token không hợp lệ hoặc đã hết hạn")

// ErrUnauthorized: không resolve được principal. Mọi thao tác trên dữ liệu
// tenant đều fail với lỗi này thay vì rơi về query không filter.
var ErrUnauthorized = errors.New("không xác định được người dùng")

// ErrForbidden: principal hợp lệ nhưng không có quyền trên tài nguyên.
var ErrForbidden = errors.New("không có quyền truy cập")

var ErrValidation = errors.New("dữ liệu không hợp lệ")
