package mailer

import "html/template"

// 邮件模板名称
const (
	TemplateOrderConfirmation = "order_confirmation"
	TemplateOrderShipped      = "order_shipped"
)

// OrderConfirmationData 下单确认邮件数据
type OrderConfirmationData struct {
	Name        string
	OrderNumber string
	Total       string
}

// OrderShippedData 发货通知邮件数据，包含收货验证码
type OrderShippedData struct {
	Name           string
	OrderNumber    string
	TrackingNumber string
	OTP            string
}

var templates = map[string]*template.Template{
	TemplateOrderConfirmation: template.Must(template.New(TemplateOrderConfirmation).Parse(`
<html>
<body>
  <h2>感谢您的订单</h2>
  <p>{{.Name}}，您好：</p>
  <p>您的订单 <strong>{{.OrderNumber}}</strong> 已创建成功，应付金额 <strong>{{.Total}}</strong>。</p>
  <p>我们会在订单发货后再次通知您。</p>
</body>
</html>`)),

	TemplateOrderShipped: template.Must(template.New(TemplateOrderShipped).Parse(`
<html>
<body>
  <h2>您的订单已发货</h2>
  <p>{{.Name}}，您好：</p>
  <p>订单 <strong>{{.OrderNumber}}</strong> 已发货，物流单号 <strong>{{.TrackingNumber}}</strong>。</p>
  <p>收货验证码：<strong>{{.OTP}}</strong>，请在收货时提供给配送员。</p>
</body>
</html>`)),
}
