package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"testing"
	"time"

	"inkwell/internal/comments"
	"inkwell/internal/models"

	"github.com/gin-gonic/gin"
)

const templatesRoot = "../../web/templates"

// templateFuncs 模板测试用的最小函数集，行为与 loadTemplates 注册的一致
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"dict": func(values ...interface{}) (map[string]interface{}, error) {
			if len(values)%2 != 0 {
				return nil, fmt.Errorf("invalid dict call")
			}
			d := make(map[string]interface{}, len(values)/2)
			for i := 0; i < len(values); i += 2 {
				key, ok := values[i].(string)
				if !ok {
					return nil, fmt.Errorf("dict keys must be strings")
				}
				d[key] = values[i+1]
			}
			return d, nil
		},
		"timeAgo": func(t interface{}) string {
			if v, ok := t.(time.Time); ok {
				return v.Format("2006-01-02")
			}
			return ""
		},
		"add": func(a, b int) int { return a + b },
	}
}

func renderTemplate(t *testing.T, name string, data interface{}, files ...string) string {
	t.Helper()
	tmpl, err := template.New("test").Funcs(templateFuncs()).ParseFiles(files...)
	if err != nil {
		t.Fatalf("parse %v: %v", files, err)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		t.Fatalf("execute %s: %v", name, err)
	}
	return buf.String()
}

func deepCardChain(t *testing.T) comments.Card {
	t.Helper()
	pid := func(v uint) *uint { return &v }
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	list := []models.Comment{
		{ID: 1, AuthorName: "a", Content: "根评论", CreatedAt: base},
		{ID: 2, ParentID: pid(1), AuthorName: "b", Content: "一层", CreatedAt: base.Add(time.Minute)},
		{ID: 3, ParentID: pid(2), AuthorName: "c", Content: "二层", CreatedAt: base.Add(2 * time.Minute)},
		{ID: 4, ParentID: pid(3), AuthorName: "d", Content: "三层深的回复", CreatedAt: base.Add(3 * time.Minute)},
	}
	return comments.NewCards(comments.BuildForest(list), comments.VariantPublicFull)[0]
}

func TestCommentCardCollapsedRepliesGetToggle(t *testing.T) {
	card := deepCardChain(t)
	out := renderTemplate(t, "comment_card",
		map[string]interface{}{"Card": card, "LikedSet": map[uint]bool{}},
		templatesRoot+"/components/comment_card.html")

	if !strings.Contains(out, "toggle-replies") {
		t.Fatal("deep reply chain should render an expand button")
	}
	if !strings.Contains(out, "展开 1 条回复") {
		t.Errorf("expand button should name the reply count:\n%s", out)
	}
	if !strings.Contains(out, `id="children-3"`) || !strings.Contains(out, "comment-children hidden") {
		t.Errorf("collapsed children container missing or not hidden:\n%s", out)
	}
	// 折叠的回复照常渲染在页面里，展开不需要再请求
	if !strings.Contains(out, "三层深的回复") {
		t.Errorf("collapsed reply body must still be in the markup:\n%s", out)
	}
}

func TestCommentCardShallowRepliesVisible(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	pid := uint(1)
	list := []models.Comment{
		{ID: 1, AuthorName: "a", Content: "根评论", CreatedAt: base},
		{ID: 2, ParentID: &pid, AuthorName: "b", Content: "一层", CreatedAt: base.Add(time.Minute)},
	}
	card := comments.NewCards(comments.BuildForest(list), comments.VariantPublicFull)[0]

	out := renderTemplate(t, "comment_card",
		map[string]interface{}{"Card": card, "LikedSet": map[uint]bool{}},
		templatesRoot+"/components/comment_card.html")

	if strings.Contains(out, "toggle-replies") {
		t.Errorf("shallow replies should be visible without a toggle:\n%s", out)
	}
	if strings.Contains(out, "comment-children hidden") {
		t.Errorf("shallow children container should not start hidden:\n%s", out)
	}
}

func detailTemplateData() gin.H {
	return gin.H{
		"Post":         models.Post{Slug: "hello", Title: "Hello", Views: 1, CreatedAt: time.Now()},
		"PostContent":  template.HTML("<p>正文</p>"),
		"Comments":     []comments.Card{},
		"CommentTotal": 0,
		"HiddenRoots":  0,
		"ShowAll":      false,
		"LikedSet":     map[uint]bool{},
		"Captcha":      "3 + 4",
	}
}

func TestDetailTemplateSurfacesSubmitError(t *testing.T) {
	data := detailTemplateData()
	data["CommentError"] = "评论内容不能为空"
	data["DraftName"] = "张三"
	data["DraftEmail"] = "zhang@example.com"
	data["DraftContent"] = "写了一半的评论"
	data["DraftParent"] = "7"

	out := renderTemplate(t, "content", data,
		templatesRoot+"/views/post/detail.html",
		templatesRoot+"/components/comment_card.html")

	if !strings.Contains(out, "form-error") || !strings.Contains(out, "评论内容不能为空") {
		t.Errorf("submit error not surfaced on the detail page:\n%s", out)
	}
	if !strings.Contains(out, `value="张三"`) || !strings.Contains(out, `value="zhang@example.com"`) {
		t.Errorf("draft name/email not prefilled:\n%s", out)
	}
	if !strings.Contains(out, "写了一半的评论") {
		t.Errorf("draft content not restored in the textarea:\n%s", out)
	}
	if !strings.Contains(out, `id="parent_id" value="7"`) {
		t.Errorf("draft parent_id not restored:\n%s", out)
	}
}

func TestDetailTemplateCleanFormWithoutError(t *testing.T) {
	out := renderTemplate(t, "content", detailTemplateData(),
		templatesRoot+"/views/post/detail.html",
		templatesRoot+"/components/comment_card.html")

	if strings.Contains(out, "form-error") {
		t.Errorf("no error banner expected on a clean render:\n%s", out)
	}
}

func TestDashboardTemplateShowsLikeTotal(t *testing.T) {
	out := renderTemplate(t, "content", gin.H{
		"PostTotal":      int64(5),
		"PublishedTotal": int64(4),
		"DraftTotal":     int64(1),
		"CommentTotal":   int64(9),
		"LikeTotal":      int64(12),
		"ViewTotal":      int64(100),
		"ClickTotal":     int64(7),
		"RecentComments": []models.Comment{},
		"TopLinks":       []models.ShortenedLink{},
	}, templatesRoot+"/views/admin/dashboard.html")

	if !strings.Contains(out, "<strong>12</strong> 点赞") {
		t.Errorf("like total missing from the dashboard stats:\n%s", out)
	}
}
