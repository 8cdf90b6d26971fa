package api

import (
	"log"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// fallbackNews 输出文件尚未生成或读取失败时返回的占位文档
const fallbackNews = `{"shanghai":[{"title":"数据加载中...","link":"#","source":"系统","time":""}],"world":[],"ai":[],"stocks":[],"policy":[]}`

const jsonContentType = "application/json; charset=utf-8"

// Reader 读取最近一次采集写出的 JSON 原文
type Reader interface {
	ReadRaw() ([]byte, error)
}

type Server struct {
	reader Reader
}

func NewServer(reader Reader) *Server {
	return &Server{reader: reader}
}

// NewEngine 返回挂好 CORS 与路由的 gin 引擎
func NewEngine(s *Server) *gin.Engine {
	r := gin.Default()
	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{http.MethodGet, http.MethodOptions}
	r.Use(cors.New(config))
	s.RegisterRoutes(r)
	return r
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)
	r.GET("/", s.news)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/news", s.news)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// news 原样返回 JSON 文件内容，不做任何转换
func (s *Server) news(c *gin.Context) {
	data, err := s.reader.ReadRaw()
	if err != nil || len(data) == 0 {
		if err != nil {
			log.Printf("api: read news file: %v", err)
		}
		data = []byte(fallbackNews)
	}
	c.Data(http.StatusOK, jsonContentType, data)
}
