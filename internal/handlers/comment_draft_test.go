package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// draftTestRouter 复现提交失败→回到详情页的往返：
// /fail 存草稿，/detail 消费草稿并以 JSON 返回注入的数据
func draftTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions("inkwell_test", cookie.NewStore([]byte("test-secret"))))
	r.POST("/fail", func(c *gin.Context) {
		stashCommentDraft(c, "请填写昵称")
		c.Redirect(http.StatusFound, "/posts/x#comments")
	})
	r.GET("/detail", func(c *gin.Context) {
		session := sessions.Default(c)
		data := gin.H{}
		consumeCommentDraft(session, data)
		session.Save()
		c.JSON(http.StatusOK, data)
	})
	return r
}

func TestCommentDraftSurvivesFailedSubmit(t *testing.T) {
	r := draftTestRouter()

	form := url.Values{}
	form.Set("author_name", "张三")
	form.Set("author_email", "zhang@example.com")
	form.Set("content", "写了一半的评论")
	form.Set("parent_id", "7")

	req := httptest.NewRequest(http.MethodPost, "/fail", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	cookies := w.Result().Cookies()
	if len(cookies) == 0 {
		t.Fatal("expected a session cookie after the failed submit")
	}

	req2 := httptest.NewRequest(http.MethodGet, "/detail", nil)
	for _, ck := range cookies {
		req2.AddCookie(ck)
	}
	w2 := httptest.NewRecorder()
	r.ServeHTTP(w2, req2)

	var data map[string]string
	if err := json.Unmarshal(w2.Body.Bytes(), &data); err != nil {
		t.Fatalf("unmarshal detail data: %v", err)
	}
	if data["CommentError"] != "请填写昵称" {
		t.Errorf("CommentError = %q, want 请填写昵称", data["CommentError"])
	}
	if data["DraftName"] != "张三" || data["DraftEmail"] != "zhang@example.com" {
		t.Errorf("draft identity not restored: %v", data)
	}
	if data["DraftContent"] != "写了一半的评论" || data["DraftParent"] != "7" {
		t.Errorf("draft body not restored: %v", data)
	}

	// 草稿是一次性的，第二次渲染不应再出现
	req3 := httptest.NewRequest(http.MethodGet, "/detail", nil)
	for _, ck := range w2.Result().Cookies() {
		req3.AddCookie(ck)
	}
	w3 := httptest.NewRecorder()
	r.ServeHTTP(w3, req3)

	var again map[string]string
	if err := json.Unmarshal(w3.Body.Bytes(), &again); err != nil {
		t.Fatalf("unmarshal second render: %v", err)
	}
	if _, ok := again["CommentError"]; ok {
		t.Error("draft flash should be cleared after one render")
	}
}

func TestConsumeCommentDraftNoFlash(t *testing.T) {
	r := draftTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/detail", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var data map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(data) != 0 {
		t.Errorf("no stash should mean no injected keys, got %v", data)
	}
}
