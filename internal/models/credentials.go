package models

import "strings"

// DefaultTokenType - схема, которую подставляем, если бэкенд не прислал tokenType.
const DefaultTokenType = "Bearer"

// CredentialPair - пара токенов, выданная бэкендом при входе/регистрации/обновлении.
//
// Описание:
//   - TokenType - семантическая метка схемы ("Bearer"), идёт первой частью Authorization;
//   - AccessToken - непрозрачная строка для авторизации запросов;
//   - RefreshToken - непрозрачная строка для выпуска новой пары;
//   - *ExpiresIn - подсказки о времени жизни в секундах, локально не проверяются.
//
// Пара заменяется целиком при каждом обновлении, частичное слияние полей не делается.
type CredentialPair struct {
	TokenType        string `json:"tokenType"`
	AccessToken      string `json:"accessToken"`
	AccessExpiresIn  int64  `json:"accessTokenExpiresIn,omitempty"`
	RefreshToken     string `json:"refreshToken"`
	RefreshExpiresIn int64  `json:"refreshTokenExpiresIn,omitempty"`
}

// Usable сообщает, что оба токена присутствуют.
func (p CredentialPair) Usable() bool {
	return p.AccessToken != "" && p.RefreshToken != ""
}

// Empty сообщает, что оба токена отсутствуют.
func (p CredentialPair) Empty() bool {
	return p.AccessToken == "" && p.RefreshToken == ""
}

// Normalized возвращает копию с подставленной схемой по умолчанию.
func (p CredentialPair) Normalized() CredentialPair {
	p.TokenType = strings.TrimSpace(p.TokenType)
	if p.TokenType == "" {
		p.TokenType = DefaultTokenType
	}

	return p
}

// AuthorizationValue - значение заголовка Authorization: "<tokenType> <accessToken>".
func (p CredentialPair) AuthorizationValue() string {
	kind := p.TokenType
	if kind == "" {
		kind = DefaultTokenType
	}

	return kind + " " + p.AccessToken
}
