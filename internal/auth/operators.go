package auth

import (
	"errors"
	"strings"
	"sync"
)

var (
	// ErrUserNotFound возвращается для неизвестного оператора
	ErrUserNotFound = errors.New("auth: оператор не найден")
	// ErrUserExists возвращается при повторной регистрации
	ErrUserExists = errors.New("auth: оператор уже существует")
)

// Operator - учётная запись оператора сервиса
type Operator struct {
	Username     string
	PasswordHash string
	IsAdmin      bool
}

// Operators - потокобезопасный in-memory реестр операторов
type Operators struct {
	mu    sync.RWMutex
	users map[string]*Operator // ключ - имя в нижнем регистре
}

// NewOperators создаёт пустой реестр
func NewOperators() *Operators {
	return &Operators{users: make(map[string]*Operator)}
}

func normalize(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Add регистрирует оператора с паролем в открытом виде
func (o *Operators) Add(username, password string, isAdmin bool) error {
	if normalize(username) == "" {
		return errors.New("auth: пустое имя оператора")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	key := normalize(username)
	if _, ok := o.users[key]; ok {
		return ErrUserExists
	}
	o.users[key] = &Operator{Username: username, PasswordHash: hash, IsAdmin: isAdmin}
	return nil
}

// Authenticate проверяет пароль и возвращает оператора
func (o *Operators) Authenticate(username, password string) (*Operator, error) {
	o.mu.RLock()
	op, ok := o.users[normalize(username)]
	o.mu.RUnlock()
	if !ok {
		return nil, ErrUserNotFound
	}
	if !CheckPassword(op.PasswordHash, password) {
		return nil, ErrUserNotFound
	}
	return op, nil
}

// Len возвращает число операторов
func (o *Operators) Len() int {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return len(o.users)
}
