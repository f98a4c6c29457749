// Package handler 按业务领域划分子包的 HTTP Handler
//
// 本文件承载 swag 的全局 API 描述，
// 生成命令: swag init -g internal/handler/doc.go -o docs
//
// @title Spacer API
// @version 1.0
// @description 场地租赁预订服务：用户、场地、预订、支付与发票
// @BasePath /
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description 格式: Bearer <token>
package handler
