package templates

import (
	"fmt"
	"html"
)

// RenderOTPEmail generates the HTML for the signup verification code email
func RenderOTPEmail(otp string) string {
	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>Your CivicFix Verification Code</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f4f5f7; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background: linear-gradient(135deg, #2563eb 0%%, #1e40af 100%%); padding: 40px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 24px; font-weight: 700; }
    .content { padding: 40px 30px; color: #1f2937; line-height: 1.6; font-size: 15px; }
    .otp-box { background: #eff6ff; border: 1px solid #bfdbfe; border-radius: 12px; padding: 20px; margin: 20px 0; text-align: center; }
    .otp-box span { font-size: 32px; letter-spacing: 8px; font-weight: 700; color: #1e40af; }
    .footer { padding: 30px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid #e5e7eb; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Verify your email</h1>
    </div>
    <div class="content">
      <p>Use the code below to verify your email address. It expires in <strong>5 minutes</strong>.</p>
      <div class="otp-box"><span>%s</span></div>
      <p>If you did not request this, you can safely ignore this email.</p>
    </div>
    <div class="footer">
      <p>&copy; CivicFix | Your city, fixed together</p>
    </div>
  </div>
</body>
</html>`, html.EscapeString(otp))
}

// RenderResetPasswordEmail generates the HTML for the password reset email
func RenderResetPasswordEmail(resetURL string) string {
	safeURL := html.EscapeString(resetURL)
	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>Reset your CivicFix password</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f4f5f7; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background: linear-gradient(135deg, #2563eb 0%%, #1e40af 100%%); padding: 40px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 24px; font-weight: 700; }
    .content { padding: 40px 30px; color: #1f2937; line-height: 1.6; font-size: 15px; }
    .cta-button { display: inline-block; background: linear-gradient(135deg, #2563eb 0%%, #1e40af 100%%); color: #fff; padding: 14px 28px; border-radius: 8px; text-decoration: none; font-weight: 700; margin-top: 20px; }
    .footer { padding: 30px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid #e5e7eb; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Password reset requested</h1>
    </div>
    <div class="content">
      <p>We received a request to reset your password. The link below is valid for <strong>1 hour</strong>.</p>
      <p style="text-align: center;"><a class="cta-button" href="%s">Reset Password</a></p>
      <p>If the button does not work, copy this link into your browser:<br>%s</p>
      <p>If you did not request a reset, no action is needed.</p>
    </div>
    <div class="footer">
      <p>&copy; CivicFix | Your city, fixed together</p>
    </div>
  </div>
</body>
</html>`, safeURL, safeURL)
}

// RenderComplaintResolvedEmail generates the HTML for the resolution
// notification sent to the complaint owner, including the after photo when
// the crew uploaded one.
func RenderComplaintResolvedEmail(fullName, description, afterImageURL string) string {
	imageBlock := ""
	if afterImageURL != "" {
		imageBlock = fmt.Sprintf(`<p>Here is how it looks now:</p>
      <p style="text-align: center;"><img src="%s" alt="after" style="max-width: 100%%; border-radius: 12px;"></p>`, html.EscapeString(afterImageURL))
	}

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>Your complaint has been resolved</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f4f5f7; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background: linear-gradient(135deg, #16a34a 0%%, #15803d 100%%); padding: 40px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 24px; font-weight: 700; }
    .content { padding: 40px 30px; color: #1f2937; line-height: 1.6; font-size: 15px; }
    .quote { background: #f0fdf4; border-left: 4px solid #16a34a; padding: 12px 16px; margin: 20px 0; color: #374151; }
    .footer { padding: 30px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid #e5e7eb; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Resolved!</h1>
    </div>
    <div class="content">
      <p>Hi %s,</p>
      <p>Good news: the issue you reported has been marked as resolved.</p>
      <div class="quote">%s</div>
      %s
      <p>Please log in and rate the resolution so we know how we did.</p>
    </div>
    <div class="footer">
      <p>&copy; CivicFix | Your city, fixed together</p>
    </div>
  </div>
</body>
</html>`, html.EscapeString(fullName), html.EscapeString(description), imageBlock)
}

// RenderAdminDigestEmail generates the HTML for the daily unresolved-work
// summary sent to administrators
func RenderAdminDigestEmail(newCount, inProgressCount int64) string {
	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>CivicFix Daily Digest</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f4f5f7; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background: linear-gradient(135deg, #2563eb 0%%, #1e40af 100%%); padding: 40px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 24px; font-weight: 700; }
    .content { padding: 40px 30px; color: #1f2937; line-height: 1.6; font-size: 15px; }
    .stat-row { display: flex; }
    .stat { flex: 1; background: #eff6ff; border-radius: 12px; padding: 20px; margin: 10px; text-align: center; }
    .stat .num { font-size: 32px; font-weight: 700; color: #1e40af; }
    .stat .label { color: #6b7280; font-size: 13px; }
    .footer { padding: 30px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid #e5e7eb; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Daily complaint digest</h1>
    </div>
    <div class="content">
      <p>Here is where the queue stands this morning:</p>
      <div class="stat-row">
        <div class="stat"><div class="num">%d</div><div class="label">new</div></div>
        <div class="stat"><div class="num">%d</div><div class="label">in progress</div></div>
      </div>
      <p>Log in to the dashboard to triage.</p>
    </div>
    <div class="footer">
      <p>&copy; CivicFix | Your city, fixed together</p>
    </div>
  </div>
</body>
</html>`, newCount, inProgressCount)
}
