package model

import "errors"

// NoticeKind is the style of a user-facing notification.
type NoticeKind string

const (
	NoticeSuccess     NoticeKind = "success"
	NoticeDestructive NoticeKind = "destructive"
)

// Notice is a transient notification shown to the user after an action.
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// Success builds a success notice.
func Success(message string) Notice {
	return Notice{Kind: NoticeSuccess, Message: message}
}

// Failure builds a destructive notice from err, falling back to a generic message.
func Failure(err error) Notice {
	var de *DomainError
	if errors.As(err, &de) {
		return Notice{Kind: NoticeDestructive, Message: de.Message}
	}
	return Notice{Kind: NoticeDestructive, Message: MsgUnexpected}
}

// User-facing messages.
const (
	MsgAdded        = "تمت إضافة المنتج إلى السلة"
	MsgUpdated      = "تم تحديث الكمية"
	MsgRemoved      = "تمت إزالة المنتج من السلة"
	MsgCleared      = "تم إفراغ السلة"
	MsgMerged       = "تم نقل محتويات سلة الزائر إلى حسابك"
	MsgOrderPlaced  = "تم إنشاء الطلب بنجاح"
	MsgOrderCancel  = "تم إلغاء الطلب"
	MsgDefaultSaved = "تم تعيين العنوان الافتراضي"

	MsgInvalidQuantity     = "يجب أن تكون الكمية 1 على الأقل"
	MsgQuantityTooLarge    = "لا يمكن أن تتجاوز كمية المنتج الواحد 999"
	MsgProductUnavailable  = "المنتج غير متوفر حالياً"
	MsgLineNotFound        = "المنتج غير موجود في السلة"
	MsgNotAuthenticated    = "يجب تسجيل الدخول لإتمام الطلب"
	MsgAddressRequired     = "يرجى اختيار عنوان الشحن"
	MsgAddressNotFound     = "عنوان الشحن المحدد غير موجود"
	MsgAddressInvalid      = "يرجى إدخال المحافظة والمدينة والشارع"
	MsgCartEmpty           = "السلة فارغة"
	MsgGuestSessionMissing = "لا توجد سلة زائر لنقلها"
	MsgProductNotFound     = "المنتج غير موجود"
	MsgOrderNotFound       = "الطلب غير موجود"
	MsgMissingSession      = "الجلسة غير معروفة"
	MsgOrderNotOwned       = "لا يمكنك إلغاء طلب لا يخصك"
	MsgOrderNotPending     = "لا يمكن إلغاء الطلب في حالته الحالية"

	MsgAddFailed      = "تعذّر إضافة المنتج إلى السلة"
	MsgUpdateFailed   = "تعذّر تحديث الكمية"
	MsgRemoveFailed   = "تعذّر إزالة المنتج من السلة"
	MsgClearFailed    = "تعذّر إفراغ السلة"
	MsgLoadFailed     = "تعذّر تحميل السلة"
	MsgCheckoutFailed = "تعذّر إنشاء الطلب"
	MsgCancelFailed   = "تعذّر إلغاء الطلب"
	MsgMergeFailed    = "تعذّر نقل محتويات سلة الزائر"

	MsgCheckoutPartial = "تعذّر إكمال الطلب وقد يظهر طلب غير مكتمل في قائمة طلباتك"
	MsgUnexpected      = "حدث خطأ غير متوقع"
)
