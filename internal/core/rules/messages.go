package rules

// User-facing validation messages
const (
	MsgBirthDateFuture       = "تاريخ الازدياد لا يمكن أن يكون في المستقبل"
	MsgRenewalDateFuture     = "تاريخ التجديد لا يمكن أن يكون في المستقبل"
	MsgIssueAfterExpiry      = "تاريخ الإصدار يجب أن يكون قبل تاريخ الانتهاء"
	MsgIssueDateFuture       = "تاريخ الإصدار لا يمكن أن يكون في المستقبل"
	MsgActiveCardDelete      = "لا يمكن حذف البطاقات النشطة"
	MsgCardStatusInvalid     = "حالة البطاقة غير صالحة: %s"
	MsgCardCancelled         = "لا يمكن تغيير حالة بطاقة ملغاة"
	MsgStartAfterEnd         = "تاريخ البداية يجب أن يكون قبل تاريخ النهاية"
	MsgStartDateFuture       = "تاريخ البداية لا يمكن أن يكون في المستقبل"
	MsgYearsOverlap          = "تتداخل التواريخ مع السنوات الدراسية التالية: %s"
	MsgExecutiveScoped       = "المكتب التنفيذي لا يحتاج إلى تحديد الجهة أو الإقليم"
	MsgRegionRequired        = "يجب تحديد الجهة للمكاتب الجهوية"
	MsgProvinceRequired      = "يجب تحديد الإقليم للمكاتب الإقليمية والمحلية"
	MsgMandateStartAfterEnd  = "تاريخ بداية الولاية يجب أن يكون قبل تاريخ نهايتها"
	MsgMandateStartFuture    = "تاريخ بداية الولاية لا يمكن أن يكون في المستقبل"
	MsgMandateNumberTaken    = "رقم الولاية %s مستخدم بالفعل لهذا النوع من المناصب"
	MsgExecutiveRoleRequired = "يجب تحديد المنصب لأعضاء المكتب التنفيذي"
	MsgPostingDateFuture     = "تاريخ التسجيل لا يمكن أن يكون في المستقبل"
	MsgPaymentDateFuture     = "تاريخ الدفع لا يمكن أن يكون في المستقبل"
	MsgPaymentAfterPosting   = "تاريخ الدفع لا يمكن أن يكون بعد تاريخ التسجيل"
	MsgAmountNotPositive     = "يجب أن يكون المبلغ أكبر من صفر"
	MsgCardFeeNeedsMember    = "يجب تحديد العضو لدفع بطاقة الإنخراط"
	MsgReceiptRequired       = "يجب إرفاق وصل للمصاريف التي تتجاوز 1000 درهم"
	MsgMethodNameRequired    = "Method Name is required"
	MsgMethodNameTaken       = "Payment method with this name already exists"
	MsgNotificationsAllOff   = "Warning: All notifications are disabled. Users may miss important updates."
)
