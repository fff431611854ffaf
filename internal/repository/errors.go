package repository

import "errors"

var ErrNotFound = errors.New("запись не найдена")
var ErrEmailTaken = errors.New("email уже занят")
