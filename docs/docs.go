// Package docs регистрирует описание HTTP API для swagger UI (/swagger/*).
// Описание соответствует аннотациям обработчиков в internal/delivery/v1/http.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/search": {
            "post": {
                "description": "Сначала ищет почти идентичный снимок по перцептивному хешу, затем похожие товары по эмбеддингам",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["search"],
                "summary": "Поиск товара по фотографии",
                "parameters": [
                    {"type": "file", "description": "Фотография товара", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "exact_match | match_found | no_match", "schema": {"$ref": "#/definitions/http.SearchResponse"}},
                    "400": {"description": "Файл не передан, не является изображением или не декодируется", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "413": {"description": "Файл слишком большой", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "503": {"description": "Индекс не загружен или энкодер недоступен", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/api/v1/search": {
            "post": {
                "description": "То же, что /search",
                "consumes": ["multipart/form-data"],
                "produces": ["application/json"],
                "tags": ["search"],
                "summary": "Поиск товара по фотографии",
                "parameters": [
                    {"type": "file", "description": "Фотография товара", "name": "file", "in": "formData", "required": true}
                ],
                "responses": {
                    "200": {"description": "exact_match | match_found | no_match", "schema": {"$ref": "#/definitions/http.SearchResponse"}},
                    "400": {"description": "Файл не передан, не является изображением или не декодируется", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "413": {"description": "Файл слишком большой", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "503": {"description": "Индекс не загружен или энкодер недоступен", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["service"],
                "summary": "Состояние сервиса",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.HealthResponse"}}
                }
            }
        },
        "/stats": {
            "get": {
                "produces": ["application/json"],
                "tags": ["service"],
                "summary": "Статистика загруженного поколения индекса",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.StatsResponse"}},
                    "503": {"description": "Индекс не загружен", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        },
        "/api/v1/index/reload": {
            "post": {
                "produces": ["application/json"],
                "tags": ["index"],
                "summary": "Загрузить текущее поколение индекса",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.ReloadResponse"}},
                    "500": {"description": "Поколение повреждено", "schema": {"$ref": "#/definitions/http.ErrorResponse"}},
                    "503": {"description": "Опубликованного поколения нет", "schema": {"$ref": "#/definitions/http.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "http.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "message": {"type": "string"}
            }
        },
        "http.RankedResponse": {
            "type": "object",
            "properties": {
                "product_name": {"type": "string"},
                "product_url": {"type": "string"},
                "price": {"type": "string"},
                "category": {"type": "string"},
                "similarity_score": {"type": "number"},
                "image_url": {"type": "string"}
            }
        },
        "http.SearchResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "enum": ["exact_match", "match_found", "no_match"]},
                "method": {"type": "string", "enum": ["perceptual_hash", "clip_similarity"]},
                "message": {"type": "string"},
                "product_name": {"type": "string"},
                "product_url": {"type": "string"},
                "price": {"type": "string"},
                "category": {"type": "string"},
                "matched_image_url": {"type": "string"},
                "confidence": {"type": "string", "enum": ["EXACT", "HIGH", "MEDIUM", "LOW"]},
                "hamming_distance": {"type": "integer"},
                "similarity_score": {"type": "number"},
                "detected_category": {"type": "string"},
                "top_5_results": {"type": "array", "items": {"$ref": "#/definitions/http.RankedResponse"}}
            }
        },
        "http.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "service": {"type": "string"},
                "version": {"type": "string"},
                "model_loaded": {"type": "boolean"},
                "index_loaded": {"type": "boolean"},
                "hash_index_loaded": {"type": "boolean"},
                "indexed_images": {"type": "integer"},
                "generation": {"type": "string"}
            }
        },
        "http.ThresholdsResponse": {
            "type": "object",
            "properties": {
                "exact_match_hash": {"type": "integer"},
                "near_exact_hash": {"type": "integer"},
                "high": {"type": "number"},
                "medium": {"type": "number"},
                "low": {"type": "number"},
                "category_floor": {"type": "number"}
            }
        },
        "http.StatsResponse": {
            "type": "object",
            "properties": {
                "total_vectors": {"type": "integer"},
                "total_images": {"type": "integer"},
                "hash_index_size": {"type": "integer"},
                "products": {"type": "integer"},
                "generation": {"type": "string"},
                "built_at": {"type": "string", "format": "date-time"},
                "model_version": {"type": "string"},
                "backend": {"type": "string"},
                "thresholds": {"$ref": "#/definitions/http.ThresholdsResponse"}
            }
        },
        "http.ReloadResponse": {
            "type": "object",
            "properties": {
                "generation": {"type": "string"},
                "images": {"type": "integer"},
                "changed": {"type": "boolean"}
            }
        }
    }
}`

// SwaggerInfo: метаданные API, подставляемые в шаблон.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Visual Search API",
	Description:      "Поиск товаров каталога по фотографии: перцептивный хеш и эмбеддинги.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
