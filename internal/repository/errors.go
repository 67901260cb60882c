package repository

import "errors"

// 対象レコードなしを統一
var ErrNotFound = errors.New("not found")
